package transport

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/aauto/aauto/aautoerr"
	"github.com/aauto/aauto/usbhub"
)

// sendTimeout is the per-chunk timeout applied to USB bulk-OUT transfers.
// Receives have no timeout -- an idle link simply leaves the request
// pending, matching spec §4.2's USB variant notes.
const sendTimeout = 10 * time.Second

// BulkEndpoint is the minimal surface NewUSBTransport needs from an opened
// AOAP bulk endpoint -- see usbhub.AoapDevice for the concrete type. Its
// method set is kept identical to usbhub.BulkEndpoint so a device's In/Out
// endpoints satisfy it without an adapter; NewUSBTransportFromDevice below
// is the caller-facing entry point for that path.
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

// USBTransport is the USB accessory-mode variant of Base. Sends larger than
// one endpoint packet are split into multiple bulk-OUT transfers tracked by
// an offset; the send promise resolves only once the last chunk completes.
type USBTransport struct {
	*Base
	in  BulkEndpoint
	out BulkEndpoint

	stopping int32
}

// NewUSBTransport wraps an opened AOAP device's two bulk endpoints.
func NewUSBTransport(in, out BulkEndpoint) *USBTransport {
	t := &USBTransport{in: in, out: out}
	t.Base = NewBase("usb", t)
	return t
}

// NewUSBTransportFromDevice builds a USBTransport from a usbhub.AoapDevice
// as resolved by Hub.Start. usbhub.BulkEndpoint's method set is kept
// identical to BulkEndpoint above so dev.In/dev.Out satisfy it directly,
// with no adapter needed.
func NewUSBTransportFromDevice(dev *usbhub.AoapDevice) *USBTransport {
	return NewUSBTransport(dev.In, dev.Out)
}

func (t *USBTransport) enqueueReceive(buf []byte, onDone func(n int), onErr func(*aautoerr.Error)) {
	go func() {
		n, err := t.in.TransferIn(context.Background(), buf)
		if err != nil {
			onErr(t.mapErr(err))
			return
		}
		onDone(n)
	}()
}

// enqueueSend splits data into MaxPacketSize()-sized chunks, issuing one
// bulk-OUT transfer per chunk with sendTimeout applied to each. onDone
// fires only after the final chunk completes.
func (t *USBTransport) enqueueSend(data []byte, onDone func(), onErr func(*aautoerr.Error)) {
	go func() {
		mtu := t.out.MaxPacketSize()
		if mtu <= 0 {
			mtu = len(data)
			if mtu == 0 {
				mtu = 1
			}
		}

		for offset := 0; offset < len(data); offset += mtu {
			end := offset + mtu
			if end > len(data) {
				end = len(data)
			}

			ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
			err := t.out.TransferOut(ctx, data[offset:end])
			cancel()

			if err != nil {
				onErr(t.mapErr(err))
				return
			}
		}
		onDone()
	}()
}

func (t *USBTransport) stopPhysical() {
	atomic.StoreInt32(&t.stopping, 1)
	t.in.Cancel()
	t.out.Cancel()
}

// mapErr maps any failure after Stop (the LIBUSB_TRANSFER_CANCELLED
// equivalent) to aautoerr.Aborted. Otherwise an *aautoerr.Error returned by
// the endpoint passes through unchanged, and any other error becomes
// UsbTransfer with native code 0.
func (t *USBTransport) mapErr(err error) *aautoerr.Error {
	if atomic.LoadInt32(&t.stopping) != 0 {
		return aautoerr.Aborted
	}
	if ae, ok := err.(*aautoerr.Error); ok {
		return ae
	}
	return aautoerr.UsbTransferErr(0)
}
