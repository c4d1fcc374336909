package broker

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmoss/kraft-broker/internal/kafkaproto"
	"github.com/dmoss/kraft-broker/internal/metadata"
)

func startTestServer(t *testing.T, logDir string) net.Addr {
	t.Helper()
	cluster, err := metadata.Build(logDir)
	if err != nil {
		t.Fatal(err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	srv := &Server{LogDir: logDir, Cluster: cluster, Listener: ln}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go func() {
		_ = srv.Run(ctx)
	}()

	return ln.Addr()
}

func writeApiVersionsRequest(t *testing.T, correlationID int32) []byte {
	t.Helper()
	header := kafkaproto.NewWriter()
	header.Int16(18) // ApiVersions
	header.Int16(4)
	header.Int32(correlationID)
	header.NullableString(nil)
	header.TaggedFields()
	header.CompactString("")
	header.CompactString("")
	header.TaggedFields()

	framed := kafkaproto.NewWriter()
	framed.Int32(int32(header.Len()))
	framed.Raw(header.Bytes())
	return framed.Bytes()
}

func TestServer_ApiVersionsOverRealSocket(t *testing.T) {
	addr := startTestServer(t, t.TempDir())

	conn, err := net.DialTimeout("tcp", addr.String(), 2*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if _, err := conn.Write(writeApiVersionsRequest(t, 0x11223344)); err != nil {
		t.Fatal(err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	lengthBuf := make([]byte, 4)
	if _, err := readFullHelper(conn, lengthBuf); err != nil {
		t.Fatal(err)
	}
	length := int32(lengthBuf[0])<<24 | int32(lengthBuf[1])<<16 | int32(lengthBuf[2])<<8 | int32(lengthBuf[3])

	body := make([]byte, length)
	if _, err := readFullHelper(conn, body); err != nil {
		t.Fatal(err)
	}

	r := kafkaproto.NewReader(body)
	correlationID, err := r.Int32()
	if err != nil {
		t.Fatal(err)
	}
	if correlationID != 0x11223344 {
		t.Errorf("got correlation id %x", correlationID)
	}
	// ApiVersions uses response header v0: no tagged_fields byte follows,
	// so the next bytes are the body's error_code directly.
	errorCode, err := r.Int16()
	if err != nil {
		t.Fatal(err)
	}
	if errorCode != 0 {
		t.Errorf("got error_code %d, want 0", errorCode)
	}
}

func readFullHelper(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func TestServer_MalformedRequestClosesConnection(t *testing.T) {
	addr := startTestServer(t, t.TempDir())

	conn, err := net.DialTimeout("tcp", addr.String(), 2*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	// A 4-byte length prefix claiming more bytes than are actually sent,
	// followed by the connection closing, should be treated as a read
	// error and the server should simply close its side.
	framed := kafkaproto.NewWriter()
	framed.Int32(100)
	framed.Raw([]byte{0x01, 0x02})
	if _, err := conn.Write(framed.Bytes()); err != nil {
		t.Fatal(err)
	}
	conn.(*net.TCPConn).CloseWrite()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1)
	if _, err := conn.Read(buf); err == nil {
		t.Error("expected the server to close the connection after a truncated frame")
	}
}
