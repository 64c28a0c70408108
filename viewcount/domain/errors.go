package domain

import "errors"

// ErrorKind identifica a categoria de um erro e, na borda HTTP, o status.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindAuth       ErrorKind = "auth"
	KindNotFound   ErrorKind = "not_found"
	KindStorage    ErrorKind = "storage"
	// KindUnavailable é descarte de carga: o request nem foi processado.
	KindUnavailable ErrorKind = "unavailable"
)

// Error é o erro tipado usado em todo o contador de views.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "view counter error"
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is casa erros com o mesmo kind e mensagem; sentinels embrulhados comparam iguais.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func WrapError(cause error, kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// As mensagens espelham as strings "error" do JSON que os clientes instalados já exibem.
var (
	ErrInvalidToken = NewError(KindAuth, "Invalid nonce")
	ErrInvalidID    = NewError(KindValidation, "Invalid post ID")
	ErrNoIdentity   = NewError(KindValidation, "Unable to resolve client identity")
	ErrNotFound     = NewError(KindNotFound, "Post does not exist")
	ErrBusy         = NewError(KindUnavailable, "Server busy")

	// ErrAlreadyMarked é retornado por MarkStore.IncrementAndMark quando já existe
	// um registro de rate limit. Nunca chega ao cliente.
	ErrAlreadyMarked = errors.New("rate-limit record already exists")
)

// KindOf retorna o kind do primeiro *Error na cadeia de err, ou "" se não houver.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// StorageError embrulha uma falha de I/O de um colaborador.
func StorageError(cause error, op string) error {
	return WrapError(cause, KindStorage, op)
}
