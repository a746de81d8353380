// Command spprofdemo exercises the full sampler→ring→resolver
// pipeline against a synthetic, in-process "target runtime": a Go
// struct graph laid out to match the legacy frame-chain ABI, standing
// in for a real interpreter so the pipeline can be driven end-to-end
// without actually embedding in one. It prints the resolved stacks of
// a two-frame synthetic chain and checks nothing itself; the
// package-level unit tests hold the assertions.
package main

import (
	"fmt"
	"os"
	"time"
	"unsafe"

	"github.com/Periecle/spprof"
	"github.com/Periecle/spprof/internal/frame"
	"github.com/Periecle/spprof/internal/resolver"
	"github.com/Periecle/spprof/internal/sampler"
)

type demoCode struct {
	bytecodeBase uintptr
	name         string
	file         string
	firstLine    int32
}

type demoFrame struct {
	back     uintptr
	code     uintptr
	bcOffset uintptr
}

type demoTState struct{ frame uintptr }

type demoCodeReader struct {
	byAddr map[uintptr]*demoCode
}

func (d *demoCodeReader) ReadFunctionInfo(addr uintptr) (resolver.FunctionInfo, bool) {
	c, ok := d.byAddr[addr]
	if !ok {
		return resolver.FunctionInfo{}, false
	}
	return resolver.FunctionInfo{FunctionName: c.name, FileName: c.file, FirstLineNumber: c.firstLine}, true
}

func legacyABI() frame.ABI {
	var f demoFrame
	var ts demoTState
	return frame.ABI{
		Kind:                   frame.KindLegacy,
		TStateCurrentOffset:    unsafe.Offsetof(ts.frame),
		FramePreviousOffset:    unsafe.Offsetof(f.back),
		FrameCodeOffset:        unsafe.Offsetof(f.code),
		FrameInstrOffset:       unsafe.Offsetof(f.bcOffset),
		CodeBytecodeBaseOffset: unsafe.Offsetof(demoCode{}.bytecodeBase),
		MinValidAddr:           0x1000,
		Alignment:              1,
	}
}

func main() {
	outer := &demoCode{bytecodeBase: 0x2000, name: "main", file: "demo.py", firstLine: 1}
	inner := &demoCode{bytecodeBase: 0x3000, name: "work", file: "demo.py", firstLine: 10}

	frameOuter := &demoFrame{back: 0, code: uintptr(unsafe.Pointer(outer)), bcOffset: 0}
	frameInner := &demoFrame{
		back:     uintptr(unsafe.Pointer(frameOuter)),
		code:     uintptr(unsafe.Pointer(inner)),
		bcOffset: 6,
	}
	tstate := &demoTState{frame: uintptr(unsafe.Pointer(frameInner))}

	codeReader := &demoCodeReader{byAddr: map[uintptr]*demoCode{
		uintptr(unsafe.Pointer(outer)): outer,
		uintptr(unsafe.Pointer(inner)): inner,
	}}

	cfg := spprof.Config{
		Interval:      2 * time.Millisecond,
		MemoryLimitMB: 1,
		RuntimeABI:    legacyABI(),
		TypeOf:        func(uintptr) uintptr { return 0xC0DE },
		CodeTypeAddr:  0xC0DE,
		MinValidAddr:  0x1000,
		CodeReader:    codeReader,
	}

	p := spprof.New(cfg)
	if err := p.Start(); err != nil {
		fmt.Fprintln(os.Stderr, "start:", err)
		os.Exit(1)
	}

	if err := p.RegisterThread(sampler.Thread{ThreadID: 1, TState: uintptr(unsafe.Pointer(tstate))}); err != nil {
		fmt.Fprintln(os.Stderr, "register thread:", err)
		os.Exit(1)
	}

	time.Sleep(50 * time.Millisecond)

	samples, err := p.Finalize()
	if err != nil {
		fmt.Fprintln(os.Stderr, "finalize:", err)
		os.Exit(1)
	}

	fmt.Printf("captured %d resolved samples\n", len(samples))
	for i, s := range samples {
		if i >= 5 {
			fmt.Printf("... and %d more\n", len(samples)-i)
			break
		}
		fmt.Printf("sample %d (thread=%d):\n", i, s.ThreadID)
		for _, f := range s.Frames {
			fmt.Printf("  %s (%s:%d)\n", f.FunctionName, f.FileName, f.LineNumber)
		}
	}
}
