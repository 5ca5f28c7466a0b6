package filehash

import (
	"crypto/md5"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
)

const (
	SHA512 = "sha512"
	SHA256 = "sha256"
	MD5    = "md5"
)

func newHash(algorithm string) (hash.Hash, error) {
	switch algorithm {
	case "", SHA512:
		return sha512.New(), nil
	case SHA256:
		return sha256.New(), nil
	case MD5:
		return md5.New(), nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm %q", algorithm)
	}
}

// Calc returns the hex digest of everything read from r.
func Calc(algorithm string, r io.Reader) (string, error) {
	h, err := newHash(algorithm)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("read stream failed: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Reader hashes and counts bytes as they are consumed by another reader.
type Reader struct {
	r    io.Reader
	h    hash.Hash
	size int64
}

func NewReader(algorithm string, r io.Reader) (*Reader, error) {
	h, err := newHash(algorithm)
	if err != nil {
		return nil, err
	}
	return &Reader{r: r, h: h}, nil
}

func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		r.h.Write(p[:n])
		r.size += int64(n)
	}
	return n, err
}

func (r *Reader) Sum() string {
	return hex.EncodeToString(r.h.Sum(nil))
}

func (r *Reader) Size() int64 {
	return r.size
}
