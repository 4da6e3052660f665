package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"path"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

var (
	ErrSSHAuthentication = errors.New("ssh: authentication failed")
	ErrSSHConnection     = errors.New("ssh: connection failed")
)

type SFTPOptions struct {
	Host           string
	Port           int
	User           string
	Password       string
	PrivateKeyPath string
	Root           string
	Timeout        time.Duration
}

// SFTP mirrors objects as files under Root on a remote host. Files carry no
// metadata, so cache-control is not stored and List reports it empty.
type SFTP struct {
	conn   *ssh.Client
	client *sftp.Client
	root   string
}

func authMethods(o SFTPOptions) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	if o.PrivateKeyPath != "" {
		key, err := os.ReadFile(o.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("%w: read private key: %v", ErrSSHAuthentication, err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid private key", ErrSSHAuthentication)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}

	if o.Password != "" {
		methods = append(methods, ssh.Password(o.Password))
	}

	if len(methods) == 0 {
		return nil, fmt.Errorf("%w: no credentials provided", ErrSSHAuthentication)
	}
	return methods, nil
}

func DialSFTP(o SFTPOptions) (*SFTP, error) {
	auth, err := authMethods(o)
	if err != nil {
		return nil, err
	}
	if o.Port == 0 {
		o.Port = 22
	}

	sshConfig := &ssh.ClientConfig{
		User:            o.User,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         o.Timeout,
	}

	addr := net.JoinHostPort(o.Host, fmt.Sprint(o.Port))
	conn, err := ssh.Dial("tcp", addr, sshConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSSHConnection, addr, err)
	}

	client, err := sftp.NewClient(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create sftp client: %w", err)
	}

	root := o.Root
	if root == "" {
		root = "."
	}
	return &SFTP{conn: conn, client: client, root: root}, nil
}

func (s *SFTP) Close() error {
	s.client.Close()
	return s.conn.Close()
}

func (s *SFTP) remotePath(key string) string { return path.Join(s.root, key) }

func (s *SFTP) List(ctx context.Context, prefix string) ([]Object, error) {
	// Walk from the deepest directory the prefix names, then filter.
	dir := s.root
	if i := strings.LastIndex(prefix, "/"); i >= 0 {
		dir = path.Join(s.root, prefix[:i])
	}

	var out []Object
	walker := s.client.Walk(dir)
	for walker.Step() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := walker.Err(); err != nil {
			if errors.Is(err, fs.ErrNotExist) && walker.Path() == dir {
				return nil, nil
			}
			return nil, fmt.Errorf("walk %s: %w", walker.Path(), err)
		}
		if walker.Stat().IsDir() {
			continue
		}
		key := walker.Path()
		if s.root != "." {
			key = strings.TrimPrefix(strings.TrimPrefix(key, s.root), "/")
		}
		if !strings.HasPrefix(key, prefix) {
			continue
		}

		fp, size, err := s.fingerprint(walker.Path())
		if err != nil {
			return nil, err
		}
		out = append(out, Object{Key: key, Fingerprint: fp, Size: size})
	}
	return out, nil
}

func (s *SFTP) fingerprint(p string) (string, int64, error) {
	f, err := s.client.Open(p)
	if err != nil {
		return "", 0, fmt.Errorf("open %s: %w", p, err)
	}
	defer f.Close()
	return Fingerprint(f)
}

// Put writes to a temporary file and renames it over the destination so a
// failed upload never leaves a truncated object behind.
func (s *SFTP) Put(ctx context.Context, key string, body io.Reader, size int64, meta Metadata) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dest := s.remotePath(key)
	if err := s.client.MkdirAll(path.Dir(dest)); err != nil {
		return fmt.Errorf("mkdir %s: %w", path.Dir(dest), err)
	}

	tmp := dest + ".tmp"
	f, err := s.client.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		s.client.Remove(tmp)
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		s.client.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := s.client.PosixRename(tmp, dest); err != nil {
		s.client.Remove(tmp)
		return fmt.Errorf("rename %s: %w", dest, err)
	}
	return nil
}

func (s *SFTP) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.client.Remove(s.remotePath(key)); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}
