package models

// Key penyimpanan sesi gateway. Dua key pertama adalah padanan
// localStorage pada klien browser lama; onboardingStep menyimpan
// posisi wizard pembuatan grup.
const (
	SessionKeyAccessToken    = "accessToken"
	SessionKeyCurrentGroup   = "currentGroupId"
	SessionKeyOnboardingStep = "onboardingStep"
)
