package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService groups this app's secrets in the OS keychain.
const KeyringService = "jobtrack"

// envPassword overrides the keychain, mostly for headless runs.
const envPassword = "JOBTRACK_IMAP_PASSWORD"

// GetIMAPPassword resolves the IMAP app password: environment first,
// then the OS keychain.
func GetIMAPPassword(keyringAccount string) (string, error) {
	if pw := strings.TrimSpace(os.Getenv(envPassword)); pw != "" {
		return pw, nil
	}
	if strings.TrimSpace(keyringAccount) != "" {
		pw, err := keyring.Get(KeyringService, keyringAccount)
		if err == nil && strings.TrimSpace(pw) != "" {
			return pw, nil
		}
	}
	return "", errors.New("IMAP password not found (set " + envPassword + " or store it in the keychain)")
}

func SetIMAPPassword(keyringAccount, password string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, keyringAccount, password)
}

func DeleteIMAPPassword(keyringAccount string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, keyringAccount)
}

// IMAPKeyringAccount derives the keychain account name for a mailbox.
func IMAPKeyringAccount(username, host string) string {
	return fmt.Sprintf("jobtrack:imap:%s@%s", username, host)
}
