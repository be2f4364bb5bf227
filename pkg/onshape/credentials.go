package onshape

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
)

const (
	// DefaultCredentialsFile is read when no explicit path is configured.
	DefaultCredentialsFile = "./credentials.json"

	// DefaultBaseURL is used for stacks that do not declare a url.
	DefaultBaseURL = "https://cad.onshape.com/"
)

// StackCredential is one entry of the credential file.
//
// Example credentials.json:
//
//	{
//	  "cad": {
//	    "url": "https://cad.onshape.com/",
//	    "accessKey": "...",
//	    "secretKey": "...",
//	    "companyId": "..."
//	  }
//	}
type StackCredential struct {
	URL       string `json:"url"`
	AccessKey string `json:"accessKey"`
	SecretKey string `json:"secretKey"`
	CompanyID string `json:"companyId,omitempty"`
}

// Validate checks that the credential can be used to sign requests.
func (c StackCredential) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.URL,
			validation.Required,
			validation.By(func(value interface{}) error {
				if !strings.HasPrefix(value.(string), "http") {
					return fmt.Errorf("url %q is invalid", value)
				}
				return nil
			}),
		),
		validation.Field(&c.AccessKey, validation.Required),
		validation.Field(&c.SecretKey, validation.Required),
	)
}

// Stack is a resolved, validated credential together with its name.
type Stack struct {
	Name string
	StackCredential
}

// CredentialStore is the parsed credential file. Stack names keep the order
// in which they appear in the file so that the default stack is stable.
type CredentialStore struct {
	path   string
	names  []string
	stacks map[string]StackCredential
}

// LoadCredentials reads and parses the credential file at path.
func LoadCredentials(fs afero.Fs, path string) (*CredentialStore, error) {
	if path == "" {
		path = DefaultCredentialsFile
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &ConfigurationError{Path: path, Err: errors.New("credentials file not found")}
		}
		return nil, &ConfigurationError{Path: path, Err: err}
	}

	store, err := ParseCredentials(data)
	if err != nil {
		return nil, &ConfigurationError{Path: path, Err: err}
	}
	store.path = path

	return store, nil
}

// ParseCredentials decodes a credential file document.
func ParseCredentials(data []byte) (*CredentialStore, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("error parsing credentials: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("credentials must be a JSON object keyed by stack name")
	}

	store := &CredentialStore{
		stacks: make(map[string]StackCredential),
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("error parsing credentials: %w", err)
		}
		name := tok.(string)

		var cred StackCredential
		if err := dec.Decode(&cred); err != nil {
			return nil, fmt.Errorf("error parsing credentials for stack %q: %w", name, err)
		}

		if _, dup := store.stacks[name]; !dup {
			store.names = append(store.names, name)
		}
		store.stacks[name] = cred
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("error parsing credentials: %w", err)
	}

	return store, nil
}

// Names returns the stack names in file order.
func (s *CredentialStore) Names() []string {
	return append([]string(nil), s.names...)
}

// Resolve selects a stack by name, or the first stack in the file when name
// is empty, and validates it.
func (s *CredentialStore) Resolve(name string) (Stack, error) {
	if name == "" {
		if len(s.names) == 0 {
			return Stack{}, &ConfigurationError{
				Path: s.path,
				Err:  errors.New("no stacks defined"),
			}
		}
		name = s.names[0]
	}

	cred, ok := s.stacks[name]
	if !ok {
		return Stack{}, &ConfigurationError{
			Path: s.path,
			Err:  fmt.Errorf("no credentials for %q", name),
		}
	}

	if cred.URL == "" {
		cred.URL = DefaultBaseURL
	}

	if err := cred.Validate(); err != nil {
		return Stack{}, &ConfigurationError{
			Path: s.path,
			Err:  fmt.Errorf("invalid credentials for stack %q: %w", name, flattenValidation(err)),
		}
	}

	return Stack{Name: name, StackCredential: cred}, nil
}

// flattenValidation turns an ozzo validation.Errors map into a multierror so
// that every field problem is reported in a stable order.
func flattenValidation(err error) error {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return err
	}

	var result *multierror.Error
	for _, field := range []string{"url", "accessKey", "secretKey"} {
		if ferr, ok := verrs[field]; ok {
			result = multierror.Append(result, fmt.Errorf("%s: %w", field, ferr))
		}
	}
	if result == nil {
		return err
	}
	result.ErrorFormat = func(errs []error) string {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return strings.Join(msgs, "; ")
	}
	return result
}
