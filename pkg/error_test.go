package pkg

import (
	"errors"
	"fmt"
	"testing"
)

func TestTransferStatus_String(t *testing.T) {
	tests := []struct {
		status TransferStatus
		want   string
	}{
		{TransferStatusSuccess, "success"},
		{TransferStatusError, "error"},
		{TransferStatusStall, "stall"},
		{TransferStatusNAK, "nak"},
		{TransferStatusTimeout, "timeout"},
		{TransferStatusCRC, "crc"},
		{TransferStatusToggleMismatch, "toggle-mismatch"},
		{TransferStatus(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.status.String(); got != tt.want {
				t.Errorf("TransferStatus.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTransferStatus_ErrorRoundTrip(t *testing.T) {
	tests := []struct {
		status  TransferStatus
		wantErr error
	}{
		{TransferStatusSuccess, nil},
		{TransferStatusStall, ErrStall},
		{TransferStatusNAK, ErrNAK},
		{TransferStatusTimeout, ErrTimeout},
		{TransferStatusCRC, ErrCRC},
		{TransferStatusToggleMismatch, ErrToggleMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			err := tt.status.Error()
			if tt.wantErr == nil && err != nil {
				t.Errorf("TransferStatus.Error() = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("TransferStatus.Error() = %v, want %v", err, tt.wantErr)
			}
			wrapped := err
			if err != nil {
				wrapped = fmt.Errorf("ep 1: %w", err)
			}
			if got := StatusOf(wrapped); got != tt.status {
				t.Errorf("StatusOf(%v) = %v, want %v", wrapped, got, tt.status)
			}
		})
	}

	if got := StatusOf(ErrFrameTooLarge); got != TransferStatusError {
		t.Errorf("StatusOf(ErrFrameTooLarge) = %v, want error", got)
	}
	if err := TransferStatusError.Error(); !errors.Is(err, ErrProtocol) {
		t.Errorf("TransferStatusError.Error() = %v, want %v", err, ErrProtocol)
	}
}

func TestSentinelErrors(t *testing.T) {
	errs := []error{
		ErrStall,
		ErrNAK,
		ErrProtocol,
		ErrInvalidRequest,
		ErrInvalidEndpoint,
		ErrNotConfigured,
		ErrDescriptorTooShort,
		ErrDescriptorTypeMismatch,
		ErrSetupPacketTooShort,
		ErrInvalidParameter,
		ErrCRC,
		ErrPIDCheck,
		ErrPacketTooShort,
		ErrPacketTooLong,
		ErrPayloadTooLarge,
		ErrUnexpectedPID,
		ErrToggleMismatch,
		ErrTimeout,
		ErrFrameTooLarge,
		ErrFrameTruncated,
		ErrClosed,
		ErrMismatch,
		ErrInvalidTranscript,
		ErrUnknownBoard,
	}

	for i, err1 := range errs {
		if err1 == nil {
			t.Errorf("error %d is nil", i)
			continue
		}
		for j, err2 := range errs {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("error %d and %d are equal", i, j)
			}
		}
	}
}
