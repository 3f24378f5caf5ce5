package auth

import (
	"net/http"

	"github.com/egner-npc/pengaduan-masyarakat-app/internal/models"
	pkghttp "github.com/egner-npc/pengaduan-masyarakat-app/pkg/http"
)

// Operation is a protected action checked by the role policy
type Operation int

const (
	OpCreateComplaint Operation = iota + 1
	OpListOwnComplaints
	OpReadProfile
	OpListAllComplaints
	OpChangeComplaintStatus
	OpReadComplaint
	OpUpdateComplaint
)

func (op Operation) String() string {
	switch op {
	case OpCreateComplaint:
		return "create_complaint"
	case OpListOwnComplaints:
		return "list_own_complaints"
	case OpReadProfile:
		return "read_profile"
	case OpListAllComplaints:
		return "list_all_complaints"
	case OpChangeComplaintStatus:
		return "change_complaint_status"
	case OpReadComplaint:
		return "read_complaint"
	case OpUpdateComplaint:
		return "update_complaint"
	}
	return "unknown"
}

// Resource identifies the owner of the record an operation targets
type Resource struct {
	OwnerID int64
}

// CanAccess decides whether identity may perform op on res.
// Ownership operations deny when res is nil.
func CanAccess(identity *models.PublicUser, op Operation, res *Resource) bool {
	if identity == nil {
		return false
	}

	switch op {
	case OpCreateComplaint, OpListOwnComplaints, OpReadProfile:
		return true
	case OpListAllComplaints, OpChangeComplaintStatus:
		return identity.Role.IsAdmin()
	case OpReadComplaint, OpUpdateComplaint:
		switch identity.Role {
		case models.RoleAdmin:
			return true
		case models.RoleCitizen:
			return res != nil && res.OwnerID == identity.ID
		}
	}
	return false
}

// Authorize is CanAccess returning a Forbidden error with a client message
func Authorize(identity *models.PublicUser, op Operation, res *Resource) error {
	if CanAccess(identity, op, res) {
		return nil
	}
	return models.Forbidden(denialMessage(op))
}

func denialMessage(op Operation) string {
	switch op {
	case OpListAllComplaints:
		return "Akses ditolak. Hanya admin yang bisa mengakses."
	case OpChangeComplaintStatus:
		return "Akses ditolak. Hanya admin yang bisa mengupdate status."
	default:
		return "Akses ditolak. Anda tidak memiliki izin."
	}
}

// Require enforces a resource-less operation. It must run after Gate.Middleware.
func Require(op Operation) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := CurrentUser(r.Context())
			if !ok {
				pkghttp.WriteUnauthorized(w, MsgTokenMissing)
				return
			}

			if err := Authorize(user, op, nil); err != nil {
				pkghttp.WriteForbidden(w, models.MessageOf(err, "Akses ditolak."))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
