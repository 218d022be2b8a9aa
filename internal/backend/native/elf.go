package native

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Relocatable object layout: [ehdr][.text][.symtab][.strtab][.shstrtab]
// [section headers]. The code the encoders produce is position independent
// and self contained, so no relocation sections are needed.

const (
	elfMachineX86_64  = 62
	elfMachineAArch64 = 183

	elfTypeRel = 1

	shtProgbits = 1
	shtSymtab   = 2
	shtStrtab   = 3

	shfAlloc     = 0x2
	shfExecinstr = 0x4

	stbLocal  = 0
	stbGlobal = 1
	sttFunc   = 2
)

type elf64Ehdr struct {
	Ident     [16]byte
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint64
	Phoff     uint64
	Shoff     uint64
	Flags     uint32
	Ehsize    uint16
	Phentsize uint16
	Phnum     uint16
	Shentsize uint16
	Shnum     uint16
	Shstrndx  uint16
}

type elf64Shdr struct {
	Name      uint32
	Type      uint32
	Flags     uint64
	Addr      uint64
	Offset    uint64
	Size      uint64
	Link      uint32
	Info      uint32
	Addralign uint64
	Entsize   uint64
}

type elf64Sym struct {
	Name  uint32
	Info  uint8
	Other uint8
	Shndx uint16
	Value uint64
	Size  uint64
}

// symbol is one function entry destined for .symtab.
type symbol struct {
	name   string
	offset uint64
	size   uint64
	global bool
}

// strtab builds a string table section. Index 0 is the empty name.
type strtab struct {
	buf []byte
}

func newStrtab() *strtab {
	return &strtab{buf: []byte{0}}
}

func (s *strtab) add(name string) uint32 {
	off := uint32(len(s.buf))
	s.buf = append(s.buf, name...)
	s.buf = append(s.buf, 0)
	return off
}

func writeELF(machine uint16, text []byte, syms []symbol) ([]byte, error) {
	// Locals must precede globals in .symtab; sh_info points at the first
	// global entry.
	ordered := make([]symbol, 0, len(syms))
	for _, s := range syms {
		if !s.global {
			ordered = append(ordered, s)
		}
	}
	firstGlobal := uint32(len(ordered) + 1)
	for _, s := range syms {
		if s.global {
			ordered = append(ordered, s)
		}
	}

	strs := newStrtab()
	symEnts := make([]elf64Sym, 1, len(ordered)+1)
	for _, s := range ordered {
		bind := uint8(stbLocal)
		if s.global {
			bind = stbGlobal
		}
		symEnts = append(symEnts, elf64Sym{
			Name:  strs.add(s.name),
			Info:  bind<<4 | sttFunc,
			Shndx: 1,
			Value: s.offset,
			Size:  s.size,
		})
	}

	shstrs := newStrtab()
	textName := shstrs.add(".text")
	symtabName := shstrs.add(".symtab")
	strtabName := shstrs.add(".strtab")
	shstrtabName := shstrs.add(".shstrtab")

	const ehdrSize = 64
	const shdrSize = 64
	const symSize = 24

	textOff := uint64(ehdrSize)
	symtabOff := align8(textOff + uint64(len(text)))
	symtabSize := uint64(len(symEnts) * symSize)
	strtabOff := symtabOff + symtabSize
	shstrtabOff := strtabOff + uint64(len(strs.buf))
	shoff := align8(shstrtabOff + uint64(len(shstrs.buf)))

	shdrs := []elf64Shdr{
		{},
		{
			Name:      textName,
			Type:      shtProgbits,
			Flags:     shfAlloc | shfExecinstr,
			Offset:    textOff,
			Size:      uint64(len(text)),
			Addralign: 16,
		},
		{
			Name:      symtabName,
			Type:      shtSymtab,
			Offset:    symtabOff,
			Size:      symtabSize,
			Link:      3,
			Info:      firstGlobal,
			Addralign: 8,
			Entsize:   symSize,
		},
		{
			Name:      strtabName,
			Type:      shtStrtab,
			Offset:    strtabOff,
			Size:      uint64(len(strs.buf)),
			Addralign: 1,
		},
		{
			Name:      shstrtabName,
			Type:      shtStrtab,
			Offset:    shstrtabOff,
			Size:      uint64(len(shstrs.buf)),
			Addralign: 1,
		},
	}

	ehdr := elf64Ehdr{
		Type:      elfTypeRel,
		Machine:   machine,
		Version:   1,
		Shoff:     shoff,
		Ehsize:    ehdrSize,
		Shentsize: shdrSize,
		Shnum:     uint16(len(shdrs)),
		Shstrndx:  uint16(len(shdrs) - 1),
	}
	copy(ehdr.Ident[:], "\x7fELF")
	ehdr.Ident[4] = 2 // ELFCLASS64
	ehdr.Ident[5] = 1 // little endian
	ehdr.Ident[6] = 1 // EV_CURRENT

	buf := &bytes.Buffer{}
	le := binary.LittleEndian
	if err := binary.Write(buf, le, ehdr); err != nil {
		return nil, fmt.Errorf("native: write ELF header: %w", err)
	}
	buf.Write(text)
	pad(buf, symtabOff)
	if err := binary.Write(buf, le, symEnts); err != nil {
		return nil, fmt.Errorf("native: write symbol table: %w", err)
	}
	buf.Write(strs.buf)
	buf.Write(shstrs.buf)
	pad(buf, shoff)
	if err := binary.Write(buf, le, shdrs); err != nil {
		return nil, fmt.Errorf("native: write section headers: %w", err)
	}
	return buf.Bytes(), nil
}

func align8(v uint64) uint64 {
	return (v + 7) &^ 7
}

func pad(buf *bytes.Buffer, to uint64) {
	for uint64(buf.Len()) < to {
		buf.WriteByte(0)
	}
}
