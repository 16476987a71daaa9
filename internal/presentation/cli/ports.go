package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	appcheckout "github.com/aimatrix/site/internal/application/checkout"
	"github.com/aimatrix/site/internal/domain/payment"
	"github.com/aimatrix/site/internal/presentation/site"
)

var errCheckoutDismissed = errors.New("checkout dismissed")

// terminal implements the site's UI ports on a plain text stream.
type terminal struct {
	out io.Writer
}

func (t terminal) Alert(msg string) {
	fmt.Fprintln(t.out, msg)
}

func (t terminal) Navigate(p site.Page) {
	fmt.Fprintf(t.out, "-> %s\n", p)
}

func (t terminal) SetStatus(text string, _ bool) {
	fmt.Fprintln(t.out, text)
}

// terminalWidget stands in for the hosted checkout. It prints the checkout
// options and waits for the completion payload as one JSON line on in.
//
// Only the widget's reader goroutine touches in. A line typed after an Open
// was abandoned goes to the next Open.
type terminalWidget struct {
	in    *bufio.Reader
	out   io.Writer
	start sync.Once
	lines chan readResult
}

func newTerminalWidget(in io.Reader, out io.Writer) *terminalWidget {
	return &terminalWidget{in: bufio.NewReader(in), out: out, lines: make(chan readResult)}
}

type readResult struct {
	line string
	err  error
}

// read feeds lines until in fails, then closes lines.
func (w *terminalWidget) read() {
	defer close(w.lines)
	for {
		line, err := w.in.ReadString('\n')
		w.lines <- readResult{line: line, err: err}
		if err != nil {
			return
		}
	}
}

func (w *terminalWidget) Open(ctx context.Context, opts appcheckout.CheckoutOptions) (payment.Confirmation, error) {
	fmt.Fprintf(w.out, "checkout: %s\n  key:      %s\n  order:    %s\n  amount:   %d %s (minor units)\n  about:    %s\n",
		opts.Name, opts.Key, opts.OrderID, opts.Amount, opts.Currency, opts.Description)
	fmt.Fprintln(w.out, "paste the checkout completion payload as JSON, or an empty line to dismiss:")

	w.start.Do(func() { go w.read() })

	var res readResult
	select {
	case <-ctx.Done():
		return payment.Confirmation{}, ctx.Err()
	case r, ok := <-w.lines:
		if !ok {
			return payment.Confirmation{}, errCheckoutDismissed
		}
		res = r
	}

	line := strings.TrimSpace(res.line)
	if line == "" {
		if res.err != nil && !errors.Is(res.err, io.EOF) {
			return payment.Confirmation{}, fmt.Errorf("read checkout payload: %w", res.err)
		}
		return payment.Confirmation{}, errCheckoutDismissed
	}
	var c payment.Confirmation
	if err := json.Unmarshal([]byte(line), &c); err != nil {
		return payment.Confirmation{}, fmt.Errorf("decode checkout payload: %w", err)
	}
	return c, nil
}
