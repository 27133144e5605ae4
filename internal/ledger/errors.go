package ledger

import (
	"fmt"

	"github.com/pkg/errors"
)

// Classes de erro do domínio. Sempre comparar com errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrIntegrity  = errors.New("integrity violation")
	ErrNotFound   = errors.New("not found")
)

// kindError carrega a mensagem para o cliente e a classe do erro
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func Validationf(format string, args ...any) error {
	return &kindError{kind: ErrValidation, msg: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) error {
	return &kindError{kind: ErrConflict, msg: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) error {
	return &kindError{kind: ErrNotFound, msg: fmt.Sprintf(format, args...)}
}

func integrity(cause error) error {
	return &kindError{kind: ErrIntegrity, msg: cause.Error()}
}

func missingRef(cause error) error {
	return &kindError{kind: ErrNotFound, msg: cause.Error()}
}
