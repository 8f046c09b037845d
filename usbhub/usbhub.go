// Package usbhub specifies the external collaborator surface for USB
// accessory-mode device discovery: enumeration, AOAP mode switch, and
// endpoint extraction (spec §4.7). The actual libusb negotiation is out of
// this module's scope; this package defines the interface the core
// consumes and a fake implementation sufficient for testing the wiring
// without real hardware.
package usbhub

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/aauto/aauto/aautoerr"
	"github.com/aauto/aauto/promise"
)

// GoogleVendorId is the USB vendor id every AOAP-capable Android device
// reports once switched into accessory mode.
const GoogleVendorId = 0x18D1

// Accessory-mode product ids, with and without ADB enabled alongside.
const (
	AOAPProductId        = 0x2D00
	AOAPWithAdbProductId = 0x2D01
)

// DeviceDescriptor is the minimal subset of a USB device descriptor the Hub
// needs to recognize an AOAP-capable device.
type DeviceDescriptor struct {
	VendorId  uint16
	ProductId uint16
}

// IsAOAP reports whether d already identifies as an Android device in
// accessory mode.
func (d DeviceDescriptor) IsAOAP() bool {
	return d.VendorId == GoogleVendorId && (d.ProductId == AOAPProductId || d.ProductId == AOAPWithAdbProductId)
}

// AoapDevice is the opened, claimed AOAP device handle the Hub resolves
// Start's promise with, wrapping its two bulk endpoints. The concrete
// BulkEndpoint implementation is supplied by the libusb binding, out of
// this module's scope; transport.NewUSBTransport consumes In/Out directly
// to drive the physical link.
type AoapDevice struct {
	In  BulkEndpoint
	Out BulkEndpoint
}

// BulkEndpoint mirrors transport.BulkEndpoint's full transfer surface --
// duplicated here (rather than imported) so this package does not depend on
// transport, matching the original design's layering where USBHub only
// produces a device handle and Transport is built from it by the caller.
// The method set must stay identical to transport.BulkEndpoint: Go allows
// an AoapDevice's In/Out to be passed anywhere a transport.BulkEndpoint is
// expected only because the two interfaces agree exactly.
type BulkEndpoint interface {
	// MaxPacketSize is the endpoint's wMaxPacketSize, the unit USB splits
	// large transfers into.
	MaxPacketSize() int

	// TransferIn performs one bulk-IN transfer into buf with no timeout,
	// returning the number of bytes actually transferred.
	TransferIn(ctx context.Context, buf []byte) (int, error)

	// TransferOut performs one bulk-OUT transfer of data within ctx's
	// deadline.
	TransferOut(ctx context.Context, data []byte) error

	// Cancel aborts any in-flight transfer on this endpoint.
	Cancel()
}

// Hub discovers AOAP-capable devices. Start registers for the next
// arrival; Cancel aborts discovery in flight. A real implementation wraps
// libusb hotplug callbacks and the AOAP vendor-control-transfer query
// chain (mode-switch strings, re-enumeration wait) described in spec §4.7
// and in the original source's USBHub.cpp/AOAPDevice.cpp; this package
// only specifies the contract.
type Hub interface {
	// Start resolves the returned promise with the next AOAP device that
	// arrives -- either immediately, if the device is already in
	// accessory mode, or after this Hub drives the AOAP query chain and
	// waits for the device to re-enumerate.
	Start(ctx context.Context) *promise.Promise[*AoapDevice]

	// Cancel rejects any outstanding Start promise with aautoerr.Aborted
	// and aborts in-flight query chains.
	Cancel()
}

// FakeHub is a test double that resolves Start immediately with a
// caller-supplied AoapDevice (or rejects with a caller-supplied error),
// used to exercise transport.NewUSBTransport wiring without real hardware.
type FakeHub struct {
	Device *AoapDevice
	Err    *aautoerr.Error

	pending *promise.Promise[*AoapDevice]
}

func (h *FakeHub) log() *log.Entry {
	return log.WithField("component", "usbhub_fake")
}

// Start resolves synchronously with h.Device, or rejects with h.Err if set.
func (h *FakeHub) Start(ctx context.Context) *promise.Promise[*AoapDevice] {
	p := promise.New[*AoapDevice](nil)
	h.pending = p

	if h.Err != nil {
		h.log().WithError(h.Err).Debug("fake hub rejecting start")
		p.Reject(h.Err)
		return p
	}

	h.log().Debug("fake hub resolving with configured device")
	p.Resolve(h.Device)
	return p
}

// Cancel rejects the outstanding Start promise, if any, with aautoerr.Aborted.
func (h *FakeHub) Cancel() {
	if h.pending != nil {
		h.pending.Reject(aautoerr.Aborted)
		h.pending = nil
	}
}
