// Package aautoerr defines the error taxonomy shared by every layer of the
// transport and multiplexing core: transport I/O, frame assembly, messenger
// rendezvous and the USB discovery surface.
//
// Every asynchronous operation in this module terminates a promise with
// either a value or one of these errors, never a bare Go error, so that
// callers can branch on Code without string matching.
package aautoerr

import "fmt"

// Code identifies the category of a failure.
type Code uint32

const (
	// None is the zero value, used only as a sentinel for "no error".
	None Code = iota

	UsbClaimInterface
	UsbObtainConfigDescriptor
	UsbInvalidConfigDescriptor
	UsbEmptyInterfaces
	UsbObtainInterfaceDescriptor
	UsbInvalidDeviceEndpoints
	UsbListDevices
	UsbObtainDeviceDescriptor
	UsbOpen
	UsbTransferAllocation
	UsbInvalidTransferMethod
	UsbTransfer

	TcpTransfer

	SslReadCertificate
	SslReadPrivateKey
	SslMethod
	SslCreateContext
	SslUseCertificate
	SslUsePrivateKey
	SslCreate
	SslHandshake
	SslWrite
	SslRead
	SslBioRead
	SslBioWrite

	OperationInProgress
	OperationAborted

	ParsePayload
	MessengerIntertwinedChannels
	MessengerStopped

	// ProtocolError is returned by MessageInStream when StrictInterleave is
	// enabled and a MIDDLE/LAST frame arrives with no matching partial
	// assembly for its channel.
	ProtocolError

	OutOfRange
)

var codeNames = map[Code]string{
	None:                         "none",
	UsbClaimInterface:            "usb_claim_interface",
	UsbObtainConfigDescriptor:    "usb_obtain_config_descriptor",
	UsbInvalidConfigDescriptor:   "usb_invalid_config_descriptor",
	UsbEmptyInterfaces:           "usb_empty_interfaces",
	UsbObtainInterfaceDescriptor: "usb_obtain_interface_descriptor",
	UsbInvalidDeviceEndpoints:    "usb_invalid_device_endpoints",
	UsbListDevices:               "usb_list_devices",
	UsbObtainDeviceDescriptor:    "usb_obtain_device_descriptor",
	UsbOpen:                      "usb_open",
	UsbTransferAllocation:        "usb_transfer_allocation",
	UsbInvalidTransferMethod:     "usb_invalid_transfer_method",
	UsbTransfer:                  "usb_transfer",
	TcpTransfer:                  "tcp_transfer",
	SslReadCertificate:           "ssl_read_certificate",
	SslReadPrivateKey:            "ssl_read_private_key",
	SslMethod:                    "ssl_method",
	SslCreateContext:             "ssl_create_context",
	SslUseCertificate:            "ssl_use_certificate",
	SslUsePrivateKey:             "ssl_use_private_key",
	SslCreate:                    "ssl_create",
	SslHandshake:                 "ssl_handshake",
	SslWrite:                     "ssl_write",
	SslRead:                      "ssl_read",
	SslBioRead:                   "ssl_bio_read",
	SslBioWrite:                  "ssl_bio_write",
	OperationInProgress:          "operation_in_progress",
	OperationAborted:             "operation_aborted",
	ParsePayload:                 "parse_payload",
	MessengerIntertwinedChannels: "messenger_intertwined_channels",
	MessengerStopped:             "messenger_stopped",
	ProtocolError:                "protocol_error",
	OutOfRange:                   "out_of_range",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code(%d)", uint32(c))
}

// Error is the single error type propagated through every promise rejection
// in the core. It is immutable after construction and safe to share across
// goroutines.
type Error struct {
	Code   Code
	Native uint32
	Info   string
}

// New builds an Error carrying no native code.
func New(code Code, info string) *Error {
	return &Error{Code: code, Info: info}
}

// WithNative builds an Error carrying a native (OS/library) error code, e.g.
// a libusb_error or an errno.
func WithNative(code Code, native uint32, info string) *Error {
	return &Error{Code: code, Native: native, Info: info}
}

func (e *Error) Error() string {
	return fmt.Sprintf("aauto error: %s, native code: %d, information: %s", e.Code, e.Native, e.Info)
}

// Is lets errors.Is(err, target) match by Code alone, so callers can do
// errors.Is(err, aautoerr.Aborted) without comparing pointers.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinel errors for the conditions every layer reuses directly.
var (
	Aborted           = New(OperationAborted, "operation aborted")
	InProgress        = New(OperationInProgress, "operation already in progress")
	Stopped           = New(MessengerStopped, "messenger stopped")
	IntertwinedChannel = New(MessengerIntertwinedChannels, "frame channel does not match in-progress message channel")
)

// UsbTransferErr builds a UsbTransfer error for a given native libusb code.
func UsbTransferErr(native uint32) *Error {
	return WithNative(UsbTransfer, native, "usb bulk transfer failed")
}

// TcpTransferErr builds a TcpTransfer error wrapping a native errno-like code.
func TcpTransferErr(native uint32) *Error {
	return WithNative(TcpTransfer, native, "tcp transfer failed")
}

// Protocol builds a ProtocolError with contextual information, used by
// MessageInStream when StrictInterleave rejects a orphaned MIDDLE/LAST frame.
func Protocol(info string) *Error {
	return New(ProtocolError, info)
}
