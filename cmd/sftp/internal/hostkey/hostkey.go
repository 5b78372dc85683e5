package hostkey

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"os"

	CharmLog "github.com/charmbracelet/log"
	"golang.org/x/crypto/ssh"
)

// Load reads a PEM private key from path. An empty path yields an ephemeral
// ed25519 key, so clients will see a new fingerprint on every start.
func Load(path string, loggerParent *CharmLog.Logger) (ssh.Signer, error) {
	logger := loggerParent.WithPrefix("HostKey")

	if path == "" {
		logger.Warn("No host key configured, generating ephemeral key")
		return Generate()
	}

	keyBytes, err := os.ReadFile(path)
	if err != nil {
		logger.Error("Failed to read host key file", "path", path, "error", err)
		return nil, err
	}

	signer, err := ssh.ParsePrivateKey(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse host key %s: %w", path, err)
	}
	logger.Info("Loaded host key", "type", signer.PublicKey().Type(), "fingerprint", ssh.FingerprintSHA256(signer.PublicKey()))
	return signer, nil
}

func Generate() (ssh.Signer, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return ssh.NewSignerFromKey(priv)
}
