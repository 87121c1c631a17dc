package binproto

import (
	"fmt"
	"math"
)

/*
Skip advances the reader past one encoded value without decoding it and
without recursion. Pending work lives on an explicit stack whose capacity is
the reader's MaxDepth; pushing onto a full stack fails with
ErrSkipDepthExceeded, so a hostile peer cannot nest its way into unbounded
memory or call depth.

There are two kinds of frame. A "next" frame means skip one value of a type.
A "collection" frame means skip n more values, where the type of each
alternates by parity between two types (both the element type for lists and
sets; key and value for maps, which count each key and each value as a unit).

Runs of fixed-width values never touch the stack. A fixed-width struct field
is stepped over inline, and a list, set or map whose elements are all fixed
width is skipped with one bounds-checked advance of count*width bytes, so the
cost of skipping is independent of the declared element count. Collections
of VOID occupy no input past their header and are finished in one step.
*/

////////////////////////////////////////////////////////////////////////////////

type skipFrame struct {
	collection bool
	remaining  uint32
	types      [2]TType
}

func nextFrame(t TType) skipFrame {
	return skipFrame{types: [2]TType{t, t}}
}

func collectionFrame(n uint32, a, b TType) skipFrame {
	return skipFrame{collection: true, remaining: n, types: [2]TType{a, b}}
}

// Skip consumes exactly one encoded value of type t.
func (r *Reader) Skip(t TType) error { // nolint: funlen
	if r.stack == nil {
		r.stack = make([]skipFrame, 0, r.opts.MaxDepth)
	}
	stack := r.stack[:0]
	push := func(f skipFrame) error {
		if len(stack) == cap(stack) {
			return ErrSkipDepthExceeded
		}
		stack = append(stack, f)
		return nil
	}

	current := nextFrame(t)
	for {
		if current.collection {
			if current.remaining == 0 {
				if len(stack) == 0 {
					return nil
				}
				current, stack = stack[len(stack)-1], stack[:len(stack)-1]
				continue
			}
			typ := current.types[current.remaining&1]
			if err := push(collectionFrame(current.remaining-1, current.types[0], current.types[1])); err != nil {
				return err
			}
			current = nextFrame(typ)
			continue
		}

		typ := current.types[0]
		if size := typ.FixedSize(); size > 0 {
			if err := r.advance(typ.String(), size); err != nil {
				return err
			}
			if len(stack) == 0 {
				return nil
			}
			current, stack = stack[len(stack)-1], stack[:len(stack)-1]
			continue
		}

		switch typ {
		case STRUCT:
			fieldType, _, err := r.ReadFieldBegin()
			if err != nil {
				return err
			}
			if size := fieldType.FixedSize(); size > 0 {
				if err := r.advance(fieldType.String(), size); err != nil {
					return err
				}
				continue
			}
			if fieldType == STOP {
				if len(stack) == 0 {
					return nil
				}
				current, stack = stack[len(stack)-1], stack[:len(stack)-1]
				continue
			}
			if err := push(current); err != nil {
				return err
			}
			current = nextFrame(fieldType)
		case LIST, SET:
			elemType, count, err := r.readCollectionBegin(typ.String())
			if err != nil {
				return err
			}
			if size := elemType.FixedSize(); size > 0 {
				if err := r.bulkAdvance(typ.String(), count, size); err != nil {
					return err
				}
				if len(stack) == 0 {
					return nil
				}
				current, stack = stack[len(stack)-1], stack[:len(stack)-1]
				continue
			}
			if elemType == VOID {
				// No element consumes input.
				if len(stack) == 0 {
					return nil
				}
				current, stack = stack[len(stack)-1], stack[:len(stack)-1]
				continue
			}
			current = collectionFrame(uint32(count), elemType, elemType)
		case MAP:
			keyType, valueType, count, err := r.ReadMapBegin()
			if err != nil {
				return err
			}
			keySize, valueSize := keyType.FixedSize(), valueType.FixedSize()
			if keySize > 0 && valueSize > 0 {
				if err := r.bulkAdvance("map", count, keySize+valueSize); err != nil {
					return err
				}
				if len(stack) == 0 {
					return nil
				}
				current, stack = stack[len(stack)-1], stack[:len(stack)-1]
				continue
			}
			if keyType == VOID && valueType == VOID {
				if len(stack) == 0 {
					return nil
				}
				current, stack = stack[len(stack)-1], stack[:len(stack)-1]
				continue
			}
			// count <= MaxInt32, so twice it fits in a uint32.
			current = collectionFrame(uint32(count)*2, keyType, valueType)
		case STRING, UTF8, UTF16:
			if err := r.skipBinary(); err != nil {
				return err
			}
			if len(stack) == 0 {
				return nil
			}
			current, stack = stack[len(stack)-1], stack[:len(stack)-1]
		case VOID:
			if len(stack) == 0 {
				return nil
			}
			current, stack = stack[len(stack)-1], stack[:len(stack)-1]
		case STOP:
			return ErrUnexpectedStopInSkip
		case STREAM:
			return ErrStreamUnsupported
		default:
			return InvalidTypeError{Code: int8(typ)}
		}
	}
}

// bulkAdvance skips count elements of width bytes each in one step.
func (r *Reader) bulkAdvance(what string, count, width int) error {
	if count > math.MaxInt/width {
		return fmt.Errorf("%s of %d elements of width %d: %w", what, count, width, ErrInvalidDataLength)
	}
	return r.advance(what, count*width)
}
