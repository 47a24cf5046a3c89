package ayu

import "github.com/ayu-lang/ayu-go/ayuerr"

// Local short aliases for the ayuerr.Kind constants this package raises
// most often, so call sites read close to the C++ original's e_* names.
const (
	eTypeNameNotFound          = ayuerr.TypeNameNotFound
	eTypeCantDefaultConstruct  = ayuerr.TypeCantDefaultConst
	eTypeCantDestroy           = ayuerr.TypeCantDestroy
	eTypeCantCast              = ayuerr.TypeCantCast
	eWriteReadonly             = ayuerr.WriteReadonly
	eAddressUnaddressable      = ayuerr.AddressUnaddressable
	eAccessDenied              = ayuerr.AccessDenied
	eAttrMissing               = ayuerr.AttrMissing
	eAttrRejected              = ayuerr.AttrRejected
	eAttrNotFound              = ayuerr.AttrNotFound
	eAttrsNotSupported         = ayuerr.AttrsNotSupported
	eElemNotFound              = ayuerr.ElemNotFound
	eElemsNotSupported         = ayuerr.ElemsNotSupported
	eLengthRejected            = ayuerr.LengthRejected
	eLengthTypeInvalid         = ayuerr.LengthTypeInvalid
	eLengthOverflow            = ayuerr.LengthOverflow
	eKeysTypeInvalid           = ayuerr.KeysTypeInvalid
	eFromTreeNotSupported      = ayuerr.FromTreeNotSupported
	eFromTreeFormRejected      = ayuerr.FromTreeFormRejected
	eFromTreeValueNotFound     = ayuerr.FromTreeValueNotFound
	eToTreeNotSupported        = ayuerr.ToTreeNotSupported
	eToTreeValueNotFound       = ayuerr.ToTreeValueNotFound
	eScanWhileScanning         = ayuerr.ScanWhileScanning
	eGeneral                  = ayuerr.General
)

func newErr(kind ayuerr.Kind, format string, args ...any) *ayuerr.Error {
	return ayuerr.New(kind, format, args...)
}

func wrapErr(kind ayuerr.Kind, cause error, format string, args ...any) *ayuerr.Error {
	return ayuerr.Wrap(kind, cause, format, args...)
}
