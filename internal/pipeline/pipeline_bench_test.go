package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"testing"

	"marcstream/plugins/decoder/sisis"
	"marcstream/plugins/writer/discard"
)

// BenchmarkPipeline: 多文件、并发解码并编码到丢弃型 Writer。
func BenchmarkPipeline(b *testing.B) {
	body := sisisBody(2000)
	var files []memFile
	for i := 0; i < 16; i++ {
		files = append(files, memFile{fmt.Sprintf("f%02d.seq", i), body})
	}
	for _, conc := range []int{1, runtime.GOMAXPROCS(0)} {
		b.Run(fmt.Sprintf("conc=%d", conc), func(b *testing.B) {
			b.SetBytes(int64(len(body) * len(files)))
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, err := Run(context.Background(), Components{
					Reader:  memReader{files: files},
					Decoder: sisis.New(nil),
					Writer:  discard.New(),
				}, Settings{Concurrency: conc, Dialect: "sisis"}, nil)
				if err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
