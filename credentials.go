package gcsv4signer

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
)

var (
	// ErrCredentialRead is returned when the credential file cannot be
	// read.
	ErrCredentialRead = errors.New("read credentials")

	// ErrCredentialParse is returned when credential data is not a
	// service account key or lacks the email or private key fields.
	ErrCredentialParse = errors.New("parse credentials")
)

// CredentialsFromFile builds a Signer from a service account JSON key
// file, the file pointed to by GOOGLE_APPLICATION_CREDENTIALS in most
// deployments.
func CredentialsFromFile(path string) (*Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCredentialRead, err)
	}
	return CredentialsFromJSON(data)
}

// CredentialsFromJSON builds a Signer from service account JSON key
// data. Only private-key-bearing service accounts can sign; keyless
// credential types are rejected.
func CredentialsFromJSON(data []byte) (*Signer, error) {
	conf, err := google.JWTConfigFromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCredentialParse, err)
	}
	if conf.Email == "" || len(conf.PrivateKey) == 0 {
		return nil, fmt.Errorf("%w: key data lacks client_email or private_key", ErrCredentialParse)
	}

	return &Signer{
		GoogleAccessID: conf.Email,
		PrivateKey:     conf.PrivateKey,
	}, nil
}
