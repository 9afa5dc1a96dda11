package uploader

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"

	"github.com/jlaffaye/ftp"

	"github.com/UCLH-Foundry/PIXL/internal/errkind"
)

// FTPSUploader uploads via explicit-TLS FTP, mirroring
// original_source/pixl_core/src/core/uploader/_ftps.py's FTPSUploader:
// one directory per project, one file per study.
type FTPSUploader struct {
	host, port string
	creds      Credentials
}

// NewFTPSUploader returns an Uploader for an FTPS destination at host:port.
func NewFTPSUploader(host, port string, creds Credentials) *FTPSUploader {
	return &FTPSUploader{host: host, port: port, creds: creds}
}

func (u *FTPSUploader) Upload(ctx context.Context, projectSlug, pseudoStudyUID string, archive io.Reader, size int64) error {
	addr := fmt.Sprintf("%s:%s", u.host, u.port)
	conn, err := ftp.Dial(addr,
		ftp.DialWithContext(ctx),
		ftp.DialWithExplicitTLS(&tls.Config{MinVersion: tls.VersionTLS12}),
	)
	if err != nil {
		return errkind.Requeuef(err, "ftps: dialing %s", addr)
	}
	defer conn.Quit()

	if err := conn.Login(u.creds.Username, u.creds.Password); err != nil {
		return errkind.Configurationf(err, "ftps: login to %s", addr)
	}

	if err := conn.MakeDir(projectSlug); err != nil {
		// Already existing is the common case; jlaffaye/ftp surfaces it
		// as an error with no distinct code, so only log-worthy failures
		// are genuinely fatal — a subsequent Stor into a missing
		// directory will fail loudly enough on its own.
		_ = err
	}

	remotePath := fmt.Sprintf("%s/%s.zip", projectSlug, pseudoStudyUID)
	if err := conn.Stor(remotePath, archive); err != nil {
		return errkind.Requeuef(err, "ftps: storing %s", remotePath)
	}
	return nil
}
