package errors

// Kind classifies failures of the encrypted range-query core.
type Kind uint8

const (
	KindUnknown Kind = iota
	// KindInitialization means key generation failed; no crypto operation may proceed.
	KindInitialization
	// KindNotInitialized means a crypto call happened before the key manager was ready.
	KindNotInitialized
	// KindEncryption covers serialization and AEAD seal failures.
	KindEncryption
	// KindDecryption covers AEAD open and deserialization failures.
	KindDecryption
	// KindQueryDecryption aborts a whole evaluation.
	KindQueryDecryption
	// KindRetrieval is a candidate fetch failure from the point store.
	KindRetrieval
	KindInvalidArgument
	KindInternal
)

var kindNames = [...]string{
	KindUnknown:         "unknown error",
	KindInitialization:  "initialization failed",
	KindNotInitialized:  "not initialized",
	KindEncryption:      "encryption failed",
	KindDecryption:      "decryption failed",
	KindQueryDecryption: "query decryption failed",
	KindRetrieval:       "retrieval failed",
	KindInvalidArgument: "invalid argument",
	KindInternal:        "internal error",
}

// String returns the human readable kind name
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return kindNames[KindUnknown]
}

// Sentinels for errors.Is comparisons; they match any error of their kind.
var (
	ErrInitialization  = &Error{Kind: KindInitialization}
	ErrNotInitialized  = &Error{Kind: KindNotInitialized}
	ErrEncryption      = &Error{Kind: KindEncryption}
	ErrDecryption      = &Error{Kind: KindDecryption}
	ErrQueryDecryption = &Error{Kind: KindQueryDecryption}
	ErrRetrieval       = &Error{Kind: KindRetrieval}
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
	ErrInternal        = &Error{Kind: KindInternal}
)

func Initialization(op string, cause error) *Error {
	return E(op, KindInitialization, cause)
}

func NotInitialized(op string) *Error {
	return New(KindNotInitialized, op, "key manager is not initialized")
}

func Encryption(op string, cause error) *Error {
	return E(op, KindEncryption, cause)
}

func Decryption(op string, cause error) *Error {
	return E(op, KindDecryption, cause)
}

func QueryDecryption(op string, cause error) *Error {
	return E(op, KindQueryDecryption, cause)
}

func Retrieval(op string, cause error) *Error {
	return E(op, KindRetrieval, cause)
}

func InvalidArgument(op string, format string, args ...any) *Error {
	return New(KindInvalidArgument, op, format, args...)
}

func Internal(op string, cause error) *Error {
	return E(op, KindInternal, cause)
}
