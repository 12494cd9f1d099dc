package aterm

// stream.go implements the binary term stream.  A stream begins with the
// reserved marker constant, then lists the term's unique nodes in topological
// order; each node references earlier nodes by their stream index.  All
// integers use most-significant-bit variable-length coding: bytes carry 7
// data bits plus a continuation bit, and the terminating byte has the
// continuation bit clear.

import (
	"bufio"
	"io"

	"github.com/mmgbartels/merc/internal/errs"
	"github.com/mmgbartels/merc/internal/num"
)

// streamMarker is the reserved constant term opening every stream.
const streamMarker = "<aterm_stream>"

// Node opcodes.
const (
	opInt uint64 = 1
	opApp uint64 = 2
)

// WriteTerm serialises t onto w.
func WriteTerm(w io.Writer, t TermRef) error {
	if !t.Defined() {
		return errs.New(errs.InvalidArgument, "writing an undefined term")
	}

	bw := bufio.NewWriter(w)
	tw := termWriter{
		w:          bw,
		streamIdx:  make(map[TermIndex]uint64),
		symbolIdx:  make(map[*Symbol]uint64),
	}

	if err := tw.writeString(streamMarker); err != nil {
		return errs.Wrap(errs.IO, err, "writing stream marker")
	}

	order := topologicalNodes(t)
	if err := num.WriteUvarint(bw, uint64(len(order))); err != nil {
		return errs.Wrap(errs.IO, err, "writing node count")
	}
	for _, node := range order {
		if err := tw.writeNode(node); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return errs.Wrap(errs.IO, err, "flushing stream")
	}
	return nil
}

// topologicalNodes lists the unique subterms of t, children before parents.
func topologicalNodes(t TermRef) []TermRef {
	var order []TermRef
	seen := make(map[TermIndex]bool)

	var visit func(r TermRef)
	visit = func(r TermRef) {
		if seen[r.index] {
			return
		}
		seen[r.index] = true
		if !r.IsInt() {
			for i := 0; i < r.Arity(); i++ {
				visit(r.Arg(i))
			}
		}
		order = append(order, r)
	}
	visit(t)
	return order
}

type termWriter struct {
	w         *bufio.Writer
	streamIdx map[TermIndex]uint64
	symbolIdx map[*Symbol]uint64
}

func (tw *termWriter) writeString(s string) error {
	if err := num.WriteUvarint(tw.w, uint64(len(s))); err != nil {
		return err
	}
	_, err := tw.w.WriteString(s)
	return err
}

func (tw *termWriter) writeNode(r TermRef) error {
	if r.IsInt() {
		if err := num.WriteUvarint(tw.w, opInt); err != nil {
			return errs.Wrap(errs.IO, err, "writing int opcode")
		}
		if err := num.WriteUvarint(tw.w, r.IntValue()); err != nil {
			return errs.Wrap(errs.IO, err, "writing int value")
		}
	} else {
		if err := num.WriteUvarint(tw.w, opApp); err != nil {
			return errs.Wrap(errs.IO, err, "writing application opcode")
		}
		if err := tw.writeSymbol(r.Symbol()); err != nil {
			return err
		}
		for i := 0; i < r.Arity(); i++ {
			argIdx, ok := tw.streamIdx[r.Arg(i).index]
			if !ok {
				// Unreachable given topological order.
				return errs.New(errs.InvalidArgument, "argument precedes its definition")
			}
			if err := num.WriteUvarint(tw.w, argIdx); err != nil {
				return errs.Wrap(errs.IO, err, "writing argument index")
			}
		}
	}
	tw.streamIdx[r.index] = uint64(len(tw.streamIdx))
	return nil
}

// writeSymbol writes a back-reference for a known symbol, or 0 followed by
// the definition for a new one.  Symbol ids are 1-based.
func (tw *termWriter) writeSymbol(s *Symbol) error {
	if id, ok := tw.symbolIdx[s]; ok {
		return errs.Wrap(errs.IO, num.WriteUvarint(tw.w, id), "writing symbol reference")
	}
	if err := num.WriteUvarint(tw.w, 0); err != nil {
		return errs.Wrap(errs.IO, err, "writing symbol definition tag")
	}
	if err := tw.writeString(s.Name()); err != nil {
		return errs.Wrap(errs.IO, err, "writing symbol name")
	}
	if err := num.WriteUvarint(tw.w, uint64(s.Arity())); err != nil {
		return errs.Wrap(errs.IO, err, "writing symbol arity")
	}
	tw.symbolIdx[s] = uint64(len(tw.symbolIdx)) + 1
	return nil
}

// ReadTerm reconstructs a term from r into thread's pool and returns an
// owning handle to the root.
func ReadTerm(r io.Reader, thread *Thread) (Term, error) {
	br := bufio.NewReader(r)
	tr := termReader{r: br, thread: thread}

	marker, err := tr.readString()
	if err != nil {
		return Term{}, err
	}
	if marker != streamMarker {
		return Term{}, errs.Newf(errs.MalformedStream, "missing stream marker, found %q", marker)
	}

	count, err := tr.readUvarint("node count")
	if err != nil {
		return Term{}, err
	}
	if count == 0 {
		return Term{}, errs.New(errs.MalformedStream, "stream holds no nodes")
	}

	nodes := make([]Term, 0, count)
	defer func() {
		// All but the returned root are dropped below; on error everything is.
		for _, n := range nodes {
			n.Drop()
		}
	}()

	for i := uint64(0); i < count; i++ {
		node, err := tr.readNode(nodes)
		if err != nil {
			return Term{}, err
		}
		nodes = append(nodes, node)
	}

	root := thread.Protect(nodes[len(nodes)-1].Ref())
	return root, nil
}

type termReader struct {
	r       *bufio.Reader
	thread  *Thread
	symbols []*Symbol
}

func (tr *termReader) readUvarint(what string) (uint64, error) {
	v, err := num.ReadUvarint(tr.r)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF || err == num.ErrUvarintOverflow {
			return 0, errs.Wrap(errs.MalformedStream, err, "reading "+what)
		}
		return 0, errs.Wrap(errs.IO, err, "reading "+what)
	}
	return v, nil
}

func (tr *termReader) readString() (string, error) {
	n, err := tr.readUvarint("string length")
	if err != nil {
		return "", err
	}
	if n > 1<<20 {
		return "", errs.Newf(errs.MalformedStream, "implausible string length %d", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(tr.r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return "", errs.Wrap(errs.MalformedStream, err, "reading string payload")
		}
		return "", errs.Wrap(errs.IO, err, "reading string payload")
	}
	return string(buf), nil
}

func (tr *termReader) readNode(earlier []Term) (Term, error) {
	op, err := tr.readUvarint("opcode")
	if err != nil {
		return Term{}, err
	}

	switch op {
	case opInt:
		value, err := tr.readUvarint("int value")
		if err != nil {
			return Term{}, err
		}
		return tr.thread.CreateInt(value), nil

	case opApp:
		symbol, err := tr.readSymbol()
		if err != nil {
			return Term{}, err
		}
		args := make([]TermRef, symbol.Arity())
		for i := range args {
			idx, err := tr.readUvarint("argument index")
			if err != nil {
				return Term{}, err
			}
			if idx >= uint64(len(earlier)) {
				return Term{}, errs.Newf(errs.MalformedStream,
					"argument stream index %d out of range (have %d nodes)", idx, len(earlier))
			}
			args[i] = earlier[idx].Ref()
		}
		return tr.thread.CreateTerm(symbol, args...)

	default:
		return Term{}, errs.Newf(errs.Unsupported, "unknown stream opcode %d", op)
	}
}

func (tr *termReader) readSymbol() (*Symbol, error) {
	id, err := tr.readUvarint("symbol reference")
	if err != nil {
		return nil, err
	}
	if id != 0 {
		if id > uint64(len(tr.symbols)) {
			return nil, errs.Newf(errs.MalformedStream, "symbol reference %d out of range", id)
		}
		return tr.symbols[id-1], nil
	}

	name, err := tr.readString()
	if err != nil {
		return nil, err
	}
	arity, err := tr.readUvarint("symbol arity")
	if err != nil {
		return nil, err
	}
	symbol := tr.thread.pool.Intern(name, int(arity))
	tr.symbols = append(tr.symbols, symbol)
	return symbol, nil
}
