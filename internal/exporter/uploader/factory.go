package uploader

import (
	"fmt"
	"strconv"
	"strings"
)

// New selects an Uploader implementation for destination kind, following
// original_source/pixl_core/src/core/uploader/__init__.py's get_uploader
// factory. host carries "host:port" for ftps and a base URL for the HTTP
// transports; an unsupported kind is a configuration error, not a
// transient one.
func New(kind Kind, host string, creds Credentials) (Uploader, error) {
	switch kind {
	case KindFTPS:
		addr, port := splitHostPort(host, "21")
		return NewFTPSUploader(addr, port, creds), nil
	case KindDICOMweb:
		return NewDicomWebUploader(host, creds), nil
	case KindXNAT:
		return NewXNATUploader(host, creds), nil
	default:
		return nil, fmt.Errorf("uploader: destination %q is not supported", kind)
	}
}

func splitHostPort(host, defaultPort string) (string, string) {
	idx := strings.LastIndex(host, ":")
	if idx < 0 {
		return host, defaultPort
	}
	if _, err := strconv.Atoi(host[idx+1:]); err != nil {
		return host, defaultPort
	}
	return host[:idx], host[idx+1:]
}
