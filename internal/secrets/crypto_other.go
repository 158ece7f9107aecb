//go:build !windows

package secrets

// Outside Windows the secret file relies on its 0600 mode.
func encrypt(plain []byte) ([]byte, error) {
	return append([]byte(nil), plain...), nil
}

func decrypt(cipher []byte) ([]byte, error) {
	return append([]byte(nil), cipher...), nil
}
