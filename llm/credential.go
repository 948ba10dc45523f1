package llm

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aiwolfdial/turandot/model"
)

const (
	EnvEndpoint = "TURANDOT_ENDPOINT"
	EnvAPIKey   = "TURANDOT_API_KEY"
	EnvModel    = "TURANDOT_MODEL"
)

type Credentials struct {
	Endpoint string
	APIKey   string
	Model    string
}

func (c Credentials) Valid() bool {
	return strings.TrimSpace(c.Endpoint) != "" && strings.TrimSpace(c.APIKey) != "" && strings.TrimSpace(c.Model) != ""
}

func CredentialsFromEnv() (Credentials, bool) {
	credentials := Credentials{
		Endpoint: strings.TrimSpace(os.Getenv(EnvEndpoint)),
		APIKey:   strings.TrimSpace(os.Getenv(EnvAPIKey)),
		Model:    strings.TrimSpace(os.Getenv(EnvModel)),
	}
	return credentials, credentials.Valid()
}

type CredentialStore struct {
	Path string
	In   *bufio.Reader
	Out  io.Writer

	ignoreEnv bool
}

func NewCredentialStore(path string, in io.Reader, out io.Writer) *CredentialStore {
	return &CredentialStore{
		Path: model.ExpandHome(path),
		In:   bufio.NewReader(in),
		Out:  out,
	}
}

func (s *CredentialStore) Read() (Credentials, error) {
	if !s.ignoreEnv {
		if credentials, ok := CredentialsFromEnv(); ok {
			slog.Info("環境変数から認証情報を読み込みました")
			return credentials, nil
		}
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s.Prompt()
		}
		return Credentials{}, fmt.Errorf("failed to read credentials: %w", err)
	}
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	if len(lines) >= 3 {
		credentials := Credentials{
			Endpoint: strings.TrimSpace(lines[0]),
			APIKey:   strings.TrimSpace(lines[1]),
			Model:    strings.TrimSpace(lines[2]),
		}
		if credentials.Valid() {
			return credentials, nil
		}
	}
	slog.Warn("認証情報ファイルが不正です", "path", s.Path)
	return s.Prompt()
}

func (s *CredentialStore) Prompt() (Credentials, error) {
	endpoint, err := s.ask("URL: ")
	if err != nil {
		return Credentials{}, err
	}
	apiKey, err := s.ask("API Key: ")
	if err != nil {
		return Credentials{}, err
	}
	modelName, err := s.ask("Model: ")
	if err != nil {
		return Credentials{}, err
	}
	credentials := Credentials{Endpoint: endpoint, APIKey: apiKey, Model: modelName}
	if err := s.Save(credentials); err != nil {
		return Credentials{}, err
	}
	return credentials, nil
}

func (s *CredentialStore) ask(label string) (string, error) {
	fmt.Fprint(s.Out, label)
	line, err := s.In.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", errors.New("input closed while reading credentials")
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (s *CredentialStore) Save(credentials Credentials) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("failed to create credential directory: %w", err)
	}
	content := strings.Join([]string{credentials.Endpoint, credentials.APIKey, credentials.Model}, "\n") + "\n"
	if err := os.WriteFile(s.Path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	slog.Info("認証情報を保存しました", "path", s.Path)
	return nil
}

type Verifier func(ctx context.Context, credentials Credentials) error

func (s *CredentialStore) Ensure(ctx context.Context, verify Verifier) (Credentials, error) {
	credentials, err := s.Read()
	for {
		if err != nil {
			return Credentials{}, err
		}
		if err := ctx.Err(); err != nil {
			return Credentials{}, err
		}
		verifyErr := verify(ctx, credentials)
		if verifyErr == nil {
			return credentials, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Credentials{}, ctxErr
		}
		fmt.Fprintf(s.Out, "Connection failed: %v\n", verifyErr)
		fmt.Fprintln(s.Out, "Please re-enter URL and API key.")
		s.ignoreEnv = true
		credentials, err = s.Prompt()
	}
}

func PingTool() ToolSpec {
	return ToolSpec{
		Name:        "Ping",
		Description: "Return Pong to verify tool calls.",
		Handler: func(context.Context, map[string]any) (string, error) {
			return "Pong", nil
		},
	}
}

func Verify(ctx context.Context, client *Client) error {
	reply, err := client.Send(ctx, []model.Message{
		{Role: model.MessageSystem, Content: "You must call the Ping tool once and reply with its result only."},
		{Role: model.MessageUser, Content: "Test tool calling."},
	}, []ToolSpec{PingTool()}, 0)
	if err != nil {
		return err
	}
	if !strings.Contains(strings.ToLower(reply), "pong") {
		return fmt.Errorf("tool call failed. Response: %s", reply)
	}
	return nil
}

func NewVerifier(options Options) Verifier {
	return func(ctx context.Context, credentials Credentials) error {
		return Verify(ctx, NewClient(credentials, options))
	}
}
