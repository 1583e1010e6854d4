package models

import "time"

// PaymentCycle adalah periode penagihan aktif sebuah grup.
// Backend hanya mengizinkan satu siklus aktif per grup.
type PaymentCycle struct {
	CycleID        string    `json:"cycleId,omitempty"`
	Period         string    `json:"period,omitempty"` // format "YYYY-MM"
	DueDate        time.Time `json:"dueDate,omitempty"`
	PaidMembers    int       `json:"paidMembers"`
	UnpaidMembers  int       `json:"unpaidMembers"`
	TotalCollected int64     `json:"totalCollected"`
	PaymentRate    float64   `json:"paymentRate"` // 0-100
	HasActiveCycle bool      `json:"hasActiveCycle"`
}

// StartCycleRequest membuka siklus penagihan baru.
type StartCycleRequest struct {
	Period  string    `json:"period"`
	DueDate time.Time `json:"dueDate"`
}

// Member adalah anggota grup pada ringkasan dashboard.
type Member struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Paid  bool   `json:"paid"`
}

// Payment adalah satu pembayaran yang baru tercatat.
type Payment struct {
	MemberName string    `json:"memberName"`
	Amount     int64     `json:"amount"`
	PaidAt     time.Time `json:"paidAt"`
}

// DashboardSummary adalah dokumen ringkasan dashboard per grup.
// Dokumen diganti utuh pada setiap fetch, tanpa merge inkremental.
type DashboardSummary struct {
	Group          Group         `json:"group"`
	Cycle          *PaymentCycle `json:"cycle,omitempty"`
	Members        []Member      `json:"members,omitempty"`
	RecentPayments []Payment     `json:"recentPayments,omitempty"`
	LastUpdated    time.Time     `json:"lastUpdated"`
}

// MemberUploadResult adalah hasil impor anggota massal.
type MemberUploadResult struct {
	Count int `json:"count"`
}
