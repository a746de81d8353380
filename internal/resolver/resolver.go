package resolver

import (
	"github.com/Periecle/spprof/internal/coderegistry"
	"github.com/Periecle/spprof/internal/plog"
	"github.com/Periecle/spprof/internal/ring"
	"github.com/Periecle/spprof/internal/rt"
)

// CodeReader reads the fields off a validated code-object address
// that the cache needs on a miss: function name, file path, and
// first-line-number. Line-number-from-instruction-pointer is kept
// separate (LineResolver) because it is never cached.
type CodeReader interface {
	ReadFunctionInfo(codeAddr uintptr) (FunctionInfo, bool)
}

// LineResolver translates a (codeAddr, instrAddr) pair into a source
// line number, using the runtime's bytecode-offset-to-line table. On
// platforms where the sampler already captured a line number directly
// (the Windows variant; spec.md §4.7), the resolver recognizes the
// small-integer range and skips this call entirely.
type LineResolver interface {
	ResolveLine(codeAddr, instrAddr uintptr) (int32, bool)
}

// Resolver drains RawSamples from the ring buffer, resolves both
// interpreter and native frames, merges them, and releases
// code-registry references. It is the single consumer in spec.md's
// producer/consumer model; none of its state needs to be safe for
// concurrent Drain calls from multiple goroutines (the façade
// serializes drains the way the teacher's event loop serializes
// microtask draining).
type Resolver struct {
	in       *ring.Buffer[rt.RawSample]
	cache    *Cache
	registry *coderegistry.Registry
	code     CodeReader
	lines    LineResolver
	native   NativeSymbolizer
	rtlib    RuntimeLibrary

	// lineAsSmallInt is the threshold below which an InterpInstr slot
	// is interpreted as an already-resolved line number rather than a
	// bytecode instruction address (the Windows fast path).
	lineAsSmallInt uintptr

	gcEpoch func() uint64
	typeOf  coderegistry.TypeCheck

	minValidAddr uintptr
	alignment    uintptr
}

// Options configures a Resolver. All fields except In are optional;
// a nil NativeSymbolizer disables native-frame resolution, a nil
// CodeReader disables interpreter-frame resolution.
type Options struct {
	In             *ring.Buffer[rt.RawSample]
	Registry       *coderegistry.Registry
	Code           CodeReader
	Lines          LineResolver
	Native         NativeSymbolizer
	RuntimeLibrary RuntimeLibrary
	LineAsSmallInt uintptr
	GCEpoch        func() uint64
	TypeCheck      coderegistry.TypeCheck
	MinValidAddr   uintptr
	Alignment      uintptr
}

// New builds a Resolver from Options.
func New(opts Options) *Resolver {
	gcEpoch := opts.GCEpoch
	if gcEpoch == nil {
		gcEpoch = func() uint64 { return 0 }
	}
	return &Resolver{
		in:             opts.In,
		cache:          NewCache(),
		registry:       opts.Registry,
		code:           opts.Code,
		lines:          opts.Lines,
		native:         opts.Native,
		rtlib:          opts.RuntimeLibrary,
		lineAsSmallInt: opts.LineAsSmallInt,
		gcEpoch:        gcEpoch,
		typeOf:         opts.TypeCheck,
		minValidAddr:   opts.MinValidAddr,
		alignment:      opts.Alignment,
	}
}

// Drain consumes up to maxCount samples from the ring buffer and
// returns their resolved form, plus whether more samples were
// available beyond maxCount.
func (r *Resolver) Drain(maxCount int) ([]rt.ResolvedSample, bool) {
	out := make([]rt.ResolvedSample, 0, maxCount)
	for len(out) < maxCount {
		var raw rt.RawSample
		if !r.in.Read(&raw) {
			return out, false
		}
		out = append(out, r.resolveOne(raw))
	}
	return out, r.in.HasData()
}

func (r *Resolver) resolveOne(raw rt.RawSample) rt.ResolvedSample {
	interp := r.resolveInterpreterFrames(raw)
	native, inRuntime := r.resolveNativeFrames(raw)

	merged := Merge(native, inRuntime, interp)

	return rt.ResolvedSample{
		TimestampNS: raw.TimestampNS,
		ThreadID:    raw.ThreadID,
		Frames:      merged,
	}
}

func (r *Resolver) resolveInterpreterFrames(raw rt.RawSample) []rt.ResolvedFrame {
	if raw.InterpDepth == 0 || r.code == nil {
		return nil
	}

	addrs := make([]uintptr, 0, raw.InterpDepth)
	frames := make([]rt.ResolvedFrame, 0, raw.InterpDepth)

	for i := int32(0); i < raw.InterpDepth; i++ {
		codeAddr := raw.InterpCode[i]
		instr := raw.InterpInstr[i]
		addrs = append(addrs, codeAddr)

		if r.registry != nil {
			v := r.registry.Validate(codeAddr, r.minValidAddr, r.alignment, r.gcEpoch(), r.typeOf)
			if !v.Safe() {
				plog.Category(plog.CategoryResolver).Debug().
					Uint64("validation", uint64(v)).Msg("code pointer failed validation at resolve time")
				continue
			}
		}

		info, ok := r.cache.Lookup(codeAddr)
		if !ok {
			read, rok := r.code.ReadFunctionInfo(codeAddr)
			if !rok {
				continue
			}
			info = read
			r.cache.Insert(codeAddr, info)
		}

		line := info.FirstLineNumber
		if instr != 0 {
			if instr < r.lineAsSmallInt && r.lineAsSmallInt != 0 {
				line = int32(instr)
			} else if r.lines != nil {
				if l, ok := r.lines.ResolveLine(codeAddr, instr); ok {
					line = l
				}
			}
		}

		frames = append(frames, rt.ResolvedFrame{
			FunctionName: info.FunctionName,
			FileName:     info.FileName,
			LineNumber:   line,
		})
	}

	if r.registry != nil && len(addrs) > 0 {
		r.registry.ReleaseRefBatch(addrs)
	}

	return frames
}

func (r *Resolver) resolveNativeFrames(raw rt.RawSample) ([]rt.ResolvedFrame, []bool) {
	if raw.NativeDepth == 0 || r.native == nil {
		return nil, nil
	}

	frames := make([]rt.ResolvedFrame, 0, raw.NativeDepth)
	inRuntime := make([]bool, 0, raw.NativeDepth)

	for i := int32(0); i < raw.NativeDepth; i++ {
		pc := raw.NativePC[i]
		nf, ok := r.native.Symbolize(pc)
		if !ok {
			frames = append(frames, rt.ResolvedFrame{IsNative: true})
			inRuntime = append(inRuntime, false)
			continue
		}

		isInRuntime := classifyRuntimeFrame(nf, r.rtlib)
		name := Demangle(nf.SymbolName)

		frames = append(frames, rt.ResolvedFrame{
			FunctionName: name,
			FileName:     nf.LibraryPath,
			IsNative:     true,
		})
		inRuntime = append(inRuntime, isInRuntime)
	}

	return frames, inRuntime
}
