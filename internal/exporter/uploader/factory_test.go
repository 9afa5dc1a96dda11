package uploader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SelectsImplementationByKind(t *testing.T) {
	cases := []struct {
		kind Kind
		want any
	}{
		{KindFTPS, &FTPSUploader{}},
		{KindDICOMweb, &DicomWebUploader{}},
		{KindXNAT, &XNATUploader{}},
	}
	for _, c := range cases {
		got, err := New(c.kind, "host:2121", Credentials{})
		require.NoError(t, err)
		assert.IsType(t, c.want, got)
	}
}

func TestNew_UnsupportedKindIsConfigurationError(t *testing.T) {
	_, err := New("azure", "host", Credentials{})
	require.Error(t, err)
}

func TestSplitHostPort(t *testing.T) {
	host, port := splitHostPort("orthanc.example:2121", "21")
	assert.Equal(t, "orthanc.example", host)
	assert.Equal(t, "2121", port)

	host, port = splitHostPort("orthanc.example", "21")
	assert.Equal(t, "orthanc.example", host)
	assert.Equal(t, "21", port)
}
