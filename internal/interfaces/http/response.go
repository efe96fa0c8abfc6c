package http

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	ierr "github.com/garyjia/promoter-portal/internal/errors"
	"github.com/garyjia/promoter-portal/pkg/utils"
)

// Response represents a standard JSON response. Message is shown to the user as is.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func respondOK(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Response{Success: true, Message: message, Data: data})
}

// respondError writes err as a Portuguese message with the mapped status code
func respondError(c *gin.Context, err error) {
	status := ierr.HTTPStatus(err)
	c.JSON(status, errorBody(status, err))
}

func abortWithError(c *gin.Context, err error) {
	status := ierr.HTTPStatus(err)
	c.AbortWithStatusJSON(status, errorBody(status, err))
}

func errorBody(status int, err error) Response {
	return Response{
		Success: false,
		Message: ierr.UserMessage(err),
		Error:   strings.ToLower(http.StatusText(status)),
	}
}

// logFailure logs server-side failures; client errors are expected traffic
func (h *Handlers) logFailure(c *gin.Context, msg string, err error) {
	if ierr.HTTPStatus(err) >= http.StatusInternalServerError {
		h.logger.Error(msg, "path", c.FullPath(), "error", err)
		return
	}
	h.logger.Info(msg, "path", c.FullPath(), "error", err)
}

// bindError converts a gin binding failure into a validation error
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if ierr.As(err, &verrs) && len(verrs) > 0 {
		return ierr.WithError(err).WithHint(fieldMessage(verrs[0])).Mark(ierr.ErrValidation)
	}
	return ierr.WithError(err).WithHint("Dados inválidos. Verifique o formulário.").Mark(ierr.ErrValidation)
}

// uploadBindError is bindError for multipart bodies capped by http.MaxBytesReader
func uploadBindError(err error, maxBytes int64) error {
	var tooLarge *http.MaxBytesError
	if ierr.As(err, &tooLarge) {
		return ierr.WithError(err).WithHintf("O arquivo deve ter no máximo %d MB.", maxBytes>>20).Mark(ierr.ErrValidation)
	}
	return bindError(err)
}

// fieldLabels names request fields the way the forms show them
var fieldLabels = map[string]string{
	"email":            "E-mail",
	"password":         "Senha",
	"confirmation":     "Confirmação de senha",
	"full_name":        "Nome completo",
	"phone":            "Telefone",
	"company":          "Empresa",
	"bank":             "Banco",
	"agency":           "Agência",
	"account":          "Conta",
	"pix_key":          "Chave PIX",
	"reason":           "Motivo",
	"notes":            "Observações",
	"request_date":     "Data da solicitação",
	"origin":           "Origem",
	"destination":      "Destino",
	"purpose":          "Finalidade",
	"place":            "Local",
	"period":           "Período",
	"justification":    "Justificativa",
	"expense_type":     "Tipo de despesa",
	"description":      "Descrição",
	"urgency":          "Urgência",
	"needed_by":        "Data de necessidade",
	"start_date":       "Data de início",
	"end_date":         "Data de término",
	"certificate_type": "Tipo de atestado",
	"cid":              "CID",
	"doctor_name":      "Nome do médico",
	"doctor_crm":       "CRM do médico",
	"role":             "Perfil de acesso",
}

func fieldLabel(fe validator.FieldError) string {
	if label, ok := fieldLabels[fe.Field()]; ok {
		return label
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	label := fieldLabel(fe)
	switch fe.Tag() {
	case "required":
		return "Preencha o campo " + label + "."
	case "email":
		return "Informe um e-mail válido."
	case "cpf":
		return "CPF inválido."
	case "pixtype":
		return "Tipo de chave PIX inválido."
	case "datetime":
		return "O campo " + label + " deve ser uma data válida."
	case "oneof":
		return "Valor inválido para o campo " + label + "."
	case "min":
		return "O campo " + label + " está muito curto."
	case "max":
		return "O campo " + label + " está muito longo."
	}
	return "Verifique o campo " + label + "."
}

// registerValidations adds the portal tags to gin's validator and reports wire field names
func registerValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, key := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(key), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	_ = utils.RegisterValidations(v)
}
