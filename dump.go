// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package memheap

import (
	"fmt"
	"io"
)

// Dump writes one line per physical block, in address order, to w: its
// offset, payload size, U(sed)/F(ree) state, and — under the memtrace
// build tag — its owner label. It is the Go analog of the reference's
// rt_memheap_dump/dump_used_memheap shell commands, minus the shell
// binding itself.
func (p *Pool) Dump(w io.Writer) error {
	p.lock.Acquire()
	defer p.lock.Release()

	if _, err := fmt.Fprintf(w, "[%s] size=%d available=%d max_used=%d\n",
		p.name, p.poolSize, p.availableSize.Load(), p.maxUsedSize.Load()); err != nil {
		return err
	}

	off := p.blockListOff
	for off != p.tailerOff {
		h := headerAt(p.region, off)
		state := byte('F')
		if isUsed(h.magicFlag) {
			state = 'U'
		}
		size := p.payloadSize(off, h)

		var err error
		if tag := h.tag(); tag != "" {
			_, err = fmt.Fprintf(w, "0x%08x: %-8d <%c> %s\n", off, size, state, tag)
		} else {
			_, err = fmt.Fprintf(w, "0x%08x: %-8d <%c>\n", off, size, state)
		}
		if err != nil {
			return err
		}

		off = h.next
	}
	return nil
}
