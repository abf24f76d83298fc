package objstore

import (
	"context"
	"io"
	"net"
	"net/url"
	"os"
	"path"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// FTPOptions configures the FTP object store client.
type FTPOptions struct {
	// BaseURL of the upload drop, e.g. "ftp://uploads.example.com/imports-in".
	// Credentials may be carried in the URL userinfo; anonymous otherwise.
	BaseURL string
	Timeout time.Duration
}

// FTPStore serves objects from an FTP drop directory. Some partners still
// stage upload files that way.
type FTPStore struct {
	opts FTPOptions
}

// NewFTP creates an FTPStore with the given options.
func NewFTP(opts FTPOptions) *FTPStore {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	return &FTPStore{opts: opts}
}

// connect dials the server from BaseURL and logs in, returning the
// connection and the remote base path.
func (s *FTPStore) connect(ctx context.Context) (*ftp.ServerConn, string, error) {
	u, err := url.Parse(s.opts.BaseURL)
	if err != nil {
		return nil, "", eris.Wrapf(err, "objstore: parse ftp url %s", s.opts.BaseURL)
	}
	if u.Scheme != "ftp" {
		return nil, "", eris.Errorf("objstore: expected ftp scheme, got %q", u.Scheme)
	}

	host := u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}

	user, pass := "anonymous", "anonymous@"
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pass = p
		}
	}

	zap.L().Debug("ftp: connecting", zap.String("host", host), zap.String("base", u.Path))

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(s.opts.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, "", eris.Wrap(err, "objstore: ftp dial")
	}
	if err := conn.Login(user, pass); err != nil {
		conn.Quit()
		return nil, "", eris.Wrap(err, "objstore: ftp login")
	}

	return conn, u.Path, nil
}

func (s *FTPStore) FetchToFile(ctx context.Context, name, localPath string) error {
	conn, base, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Quit() //nolint:errcheck

	resp, err := conn.Retr(path.Join(base, name))
	if err != nil {
		return eris.Wrapf(err, "objstore: ftp retrieve %s", name)
	}
	defer resp.Close() //nolint:errcheck

	file, err := os.Create(localPath)
	if err != nil {
		return eris.Wrapf(err, "objstore: create %s", localPath)
	}
	defer file.Close() //nolint:errcheck

	if _, err := io.Copy(file, resp); err != nil {
		return eris.Wrapf(err, "objstore: write object %s", name)
	}
	return nil
}

func (s *FTPStore) Delete(ctx context.Context, name string) error {
	conn, base, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Quit() //nolint:errcheck

	if err := conn.Delete(path.Join(base, name)); err != nil {
		return eris.Wrapf(err, "objstore: ftp delete %s", name)
	}
	return nil
}
