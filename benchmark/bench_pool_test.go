//nolint:testpackage // using package name 'benchmark' to access unexported fields for testing
package benchmark

import (
	"bytes"
	"testing"

	pool "github.com/dzonerzy/go-iochan/internal/pool"
)

// Category: pool

func BenchmarkPool_GetPut(b *testing.B) {
	p := pool.NewPool(func() *[]byte {
		buf := make([]byte, 0, 1024)
		return &buf
	})

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			obj := p.Get()
			p.Put(obj)
		}
	})
}

func BenchmarkBuffer_vs_Direct(b *testing.B) {
	line := []byte("rendered message line\n")

	b.Run("Pool", func(b *testing.B) {
		b.ReportAllocs()
		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				buf := pool.GetBuffer()
				buf.Write(line)
				_ = buf.String()
				pool.PutBuffer(buf)
			}
		})
	})

	b.Run("Direct", func(b *testing.B) {
		b.ReportAllocs()
		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				buf := new(bytes.Buffer)
				buf.Grow(256)
				buf.Write(line)
				_ = buf.String()
			}
		})
	})
}
