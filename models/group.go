package models

// Kategori grup sesuai enum backend.
const (
	GroupCategoryClub            = "CLUB"
	GroupCategoryStudy           = "STUDY"
	GroupCategorySocialGathering = "SOCIAL_GATHERING"
	GroupCategoryProject         = "PROJECT"
	GroupCategoryOther           = "OTHER"
)

// GroupCategories daftar kategori yang ditampilkan pada form pembuatan grup.
var GroupCategories = []string{
	GroupCategoryClub,
	GroupCategoryStudy,
	GroupCategorySocialGathering,
	GroupCategoryProject,
	GroupCategoryOther,
}

// ValidGroupCategory memeriksa keanggotaan kategori pada enum.
func ValidGroupCategory(category string) bool {
	for _, c := range GroupCategories {
		if c == category {
			return true
		}
	}
	return false
}

// Group merepresentasikan grup iuran milik pengguna, sebagaimana
// dikembalikan backend pada GET /user/groups.
type Group struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AccountName string `json:"accountName,omitempty"`
	Description string `json:"description,omitempty"`
	Fee         int    `json:"fee,omitempty"`
	Category    string `json:"category,omitempty"`
	MemberCount int    `json:"memberCount,omitempty"`
}

// CreateGroupRequest adalah payload step 1 wizard pembuatan grup.
type CreateGroupRequest struct {
	GroupName     string `json:"groupName"`
	AccountName   string `json:"accountName"`
	Description   string `json:"description"`
	Fee           int    `json:"fee"`
	GroupCategory string `json:"groupCategory"`
}

// CreateGroupResponse menampung ID grup hasil pembuatan. Backend
// mengembalikan ID pada salah satu dari dua nama field.
type CreateGroupResponse struct {
	GroupID string `json:"groupId"`
	ID      string `json:"id"`
}

// CreatedID mengembalikan ID dari field mana pun yang terisi.
func (r CreateGroupResponse) CreatedID() string {
	if r.GroupID != "" {
		return r.GroupID
	}
	return r.ID
}
