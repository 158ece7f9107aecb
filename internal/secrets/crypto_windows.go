//go:build windows

package secrets

import (
	"unsafe"

	"golang.org/x/sys/windows"

	"sql-orchestrator/internal/platform/paths"
)

// entropy ties protected blobs to this application.
var entropy = []byte(paths.AppName)

func bytesToBlob(b []byte) *windows.DataBlob {
	if len(b) == 0 {
		return &windows.DataBlob{}
	}
	return &windows.DataBlob{
		Size: uint32(len(b)),
		Data: &b[0],
	}
}

func blobToBytes(b windows.DataBlob) []byte {
	if b.Size == 0 || b.Data == nil {
		return nil
	}

	out := make([]byte, b.Size)
	copy(out, unsafe.Slice(b.Data, b.Size))
	return out
}

func encrypt(plain []byte) ([]byte, error) {
	var out windows.DataBlob
	err := windows.CryptProtectData(
		bytesToBlob(plain),
		nil,
		bytesToBlob(entropy),
		0,
		nil,
		windows.CRYPTPROTECT_LOCAL_MACHINE|windows.CRYPTPROTECT_UI_FORBIDDEN,
		&out,
	)
	if err != nil {
		return nil, err
	}
	defer windows.LocalFree(windows.Handle(unsafe.Pointer(out.Data)))

	return blobToBytes(out), nil
}

func decrypt(cipher []byte) ([]byte, error) {
	var out windows.DataBlob
	err := windows.CryptUnprotectData(
		bytesToBlob(cipher),
		nil,
		bytesToBlob(entropy),
		0,
		nil,
		windows.CRYPTPROTECT_UI_FORBIDDEN,
		&out,
	)
	if err != nil {
		return nil, err
	}
	defer windows.LocalFree(windows.Handle(unsafe.Pointer(out.Data)))

	return blobToBytes(out), nil
}
