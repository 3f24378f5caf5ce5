package models

import (
	"fmt"
	"time"
)

// ComplaintStatus tracks a complaint through admin triage
type ComplaintStatus string

const (
	StatusPending    ComplaintStatus = "pending"
	StatusProcessing ComplaintStatus = "diproses"
	StatusResolved   ComplaintStatus = "selesai"
	StatusRejected   ComplaintStatus = "ditolak"
)

// ComplaintStatuses lists every status in display order
var ComplaintStatuses = []ComplaintStatus{StatusPending, StatusProcessing, StatusResolved, StatusRejected}

func ParseComplaintStatus(s string) (ComplaintStatus, error) {
	for _, st := range ComplaintStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown complaint status %q", s)
}

// Complaint categories offered by the mobile client
const (
	CategoryInfrastructure = "infrastruktur"
	CategorySocial         = "sosial"
	CategoryEnvironment    = "lingkungan"
	CategorySecurity       = "keamanan"
	CategoryOther          = "lainnya"
)

type Complaint struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Title     string          `json:"judul"`
	Body      string          `json:"isi_laporan"`
	Location  *string         `json:"lokasi"`
	Category  string          `json:"kategori"`
	PhotoURL  *string         `json:"foto"`
	Status    ComplaintStatus `json:"status"`
	Response  *string         `json:"tanggapan"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`

	// Owner details joined from users on read
	OwnerName  string  `json:"user_nama,omitempty"`
	OwnerNIK   string  `json:"user_nik,omitempty"`
	OwnerPhone *string `json:"user_telepon,omitempty"`
}

// ComplaintFilter narrows the admin listing
type ComplaintFilter struct {
	Status ComplaintStatus
	Limit  int
	Offset int
}
