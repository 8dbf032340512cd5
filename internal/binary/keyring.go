package binary

import (
	"bytes"
	"fmt"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
	"github.com/jedisct1/go-minisign"

	appErrors "github.com/zymbit-applications/zb-install/internal/errors"
)

// LoadKeyring reads an armored or binary OpenPGP public keyring from path.
func LoadKeyring(path string) (openpgp.EntityList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, appErrors.New(appErrors.CodeConfiguration, "open keyring", err)
	}

	keyring, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		keyring, err = openpgp.ReadKeyRing(bytes.NewReader(data))
		if err != nil {
			return nil, appErrors.New(appErrors.CodeConfiguration, fmt.Sprintf("read keyring %s", path), err)
		}
	}

	if len(keyring) == 0 {
		return nil, appErrors.New(appErrors.CodeConfiguration, fmt.Sprintf("keyring %s is empty", path), nil)
	}
	return keyring, nil
}

// LoadMinisignKey reads a minisign public key file (the .pub written by
// "minisign -G").
func LoadMinisignKey(path string) (minisign.PublicKey, error) {
	key, err := minisign.NewPublicKeyFromFile(path)
	if err != nil {
		return minisign.PublicKey{}, appErrors.New(appErrors.CodeConfiguration, "read minisign public key", err)
	}
	return key, nil
}
