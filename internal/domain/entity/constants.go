package entity

// Kind identifies one of the five request shapes
type Kind string

const (
	KindCashAdvance        Kind = "cash_advance"
	KindMileage            Kind = "mileage_reimbursement"
	KindMealVoucher        Kind = "meal_voucher"
	KindMedicalCertificate Kind = "medical_certificate"
	KindPurchaseOrder      Kind = "purchase_order"
)

// Kinds lists every request kind
var Kinds = []Kind{KindCashAdvance, KindMileage, KindMealVoucher, KindMedicalCertificate, KindPurchaseOrder}

var kindLabels = map[Kind]string{
	KindCashAdvance:        "Adiantamento",
	KindMileage:            "Reembolso de KM",
	KindMealVoucher:        "Vale Refeição",
	KindMedicalCertificate: "Atestado Médico",
	KindPurchaseOrder:      "Pedido de Compra",
}

// IsValid reports whether k is a known kind
func (k Kind) IsValid() bool {
	_, ok := kindLabels[k]
	return ok
}

// Label is the Portuguese name shown to users
func (k Kind) Label() string {
	return kindLabels[k]
}

// Status is the lifecycle status of a request
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusPaid      Status = "paid"
	StatusCompleted Status = "completed"
)

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusPaid, StatusCompleted:
		return true
	}
	return false
}

var statusLabels = map[Status]string{
	StatusPending:   "Pendente",
	StatusApproved:  "Aprovado",
	StatusRejected:  "Recusado",
	StatusPaid:      "Pago",
	StatusCompleted: "Concluído",
}

// Label is the Portuguese status name
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Role is the portal role of a profile
type Role string

const (
	RolePromoter Role = "promoter"
	RoleAdmin    Role = "admin"
)

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	return r == RolePromoter || r == RoleAdmin
}

// Purchase order expense types
const (
	ExpensePromotionalMaterial = "material_promocional"
	ExpenseTransport           = "transporte"
	ExpenseLodging             = "hospedagem"
	ExpenseFood                = "alimentacao"
	ExpenseOther               = "outros"
)

// Purchase order urgency levels
const (
	UrgencyLow    = "baixa"
	UrgencyMedium = "media"
	UrgencyHigh   = "alta"
)

// Approval history actions
const (
	ActionApprove = "APPROVE"
	ActionReject  = "REJECT"
)

// Notification types
const (
	NotificationRequestSubmitted = "request_submitted"
	NotificationRequestApproved  = "request_approved"
	NotificationRequestRejected  = "request_rejected"
)
