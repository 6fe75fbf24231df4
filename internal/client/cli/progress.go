package cli

import (
	"io"

	"github.com/cheggaaa/pb/v3"
)

// progress renders a byte progress bar for one transfer. Its wrap method
// matches client.WrapFunc.
type progress struct {
	out   io.Writer
	label string
	bar   *pb.ProgressBar
}

func (p *progress) wrap(total, done int64, r io.Reader) io.Reader {
	p.bar = pb.New64(total).
		Set(pb.Bytes, true).
		Set("prefix", p.label).
		SetWriter(p.out).
		SetCurrent(done).
		Start()
	return p.bar.NewProxyReader(r)
}

func (p *progress) finish() {
	if p.bar != nil {
		p.bar.Finish()
	}
}
