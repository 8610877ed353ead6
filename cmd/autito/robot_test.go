package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/autito/pkg/config"
	"github.com/itohio/autito/pkg/link"
)

func TestNewDialer(t *testing.T) {
	cfg := config.Default().Link

	d, err := newDialer(cfg)
	require.NoError(t, err)
	assert.Equal(t, link.TCPDialer{Addr: "192.168.4.2:12345", Timeout: 2 * time.Second}, d)

	cfg.Transport = config.TransportSerial
	d, err = newDialer(cfg)
	require.NoError(t, err)
	assert.Equal(t, link.SerialDialer{Port: "/dev/ttyUSB0", BaudRate: 115200}, d)

	cfg.Transport = "carrier-pigeon"
	_, err = newDialer(cfg)
	assert.Error(t, err)
}
