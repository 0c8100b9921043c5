package client

import "io"

// progressReader counts bytes as the request body is consumed and reports
// them through a callback. The callback runs on the transport's goroutine;
// keep it cheap.
type progressReader struct {
	r        io.Reader
	total    int64
	sent     int64
	callback func(sent, total int64)
}

func newProgressReader(r io.Reader, total int64, callback func(sent, total int64)) *progressReader {
	return &progressReader{r: r, total: total, callback: callback}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		p.callback(p.sent, p.total)
	}
	return n, err
}
