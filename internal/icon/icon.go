// Package icon converts images into multi-resolution ICO containers.
package icon

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // decoder registration
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Sizes are the square resolutions written into every converted icon,
// ascending.
var Sizes = []int{16, 32, 48, 64, 128, 256}

const (
	headerSize = 6
	entrySize  = 16
)

// IsICO reports whether path already names an ICO file, by extension.
func IsICO(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".ico")
}

// Converter turns arbitrary images into ICO files.
type Converter struct {
	sizes []int
}

// NewConverter returns a Converter for the given sizes, or Sizes when none
// are given.
func NewConverter(sizes ...int) *Converter {
	if len(sizes) == 0 {
		sizes = Sizes
	}
	return &Converter{sizes: sizes}
}

// ConvertToICO decodes the image at src and writes an ICO container to dst
// holding one PNG-encoded entry per configured size.
func (c *Converter) ConvertToICO(src, dst string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("decoding image: %w", err)
	}

	images := make([]image.Image, 0, len(c.sizes))
	for _, size := range c.sizes {
		images = append(images, Square(img, size))
	}

	var buf bytes.Buffer
	if err := Encode(&buf, images); err != nil {
		return err
	}
	if err := os.WriteFile(dst, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing icon: %w", err)
	}
	return nil
}

// Square scales img into a size x size RGBA canvas with Catmull-Rom.
// The aspect ratio is kept; the unused margin stays transparent.
func Square(img image.Image, size int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return dst
	}

	tw, th := size, size
	if w > h {
		th = max(1, size*h/w)
	} else if h > w {
		tw = max(1, size*w/h)
	}
	x0 := (size - tw) / 2
	y0 := (size - th) / 2

	draw.CatmullRom.Scale(dst, image.Rect(x0, y0, x0+tw, y0+th), img, b, draw.Over, nil)
	return dst
}

// Encode writes images as an ICO container with PNG payloads.
// Each image must be at most 256 pixels on either side.
func Encode(w io.Writer, images []image.Image) error {
	if len(images) == 0 {
		return errors.New("no images to encode")
	}
	if len(images) > 0xFFFF {
		return fmt.Errorf("too many images: %d", len(images))
	}

	payloads := make([][]byte, len(images))
	for i, img := range images {
		b := img.Bounds()
		if b.Dx() > 256 || b.Dy() > 256 || b.Dx() == 0 || b.Dy() == 0 {
			return fmt.Errorf("image %d has unsupported size %dx%d", i, b.Dx(), b.Dy())
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return fmt.Errorf("encoding image %d: %w", i, err)
		}
		payloads[i] = buf.Bytes()
	}

	var header bytes.Buffer
	binary.Write(&header, binary.LittleEndian, uint16(0)) // reserved
	binary.Write(&header, binary.LittleEndian, uint16(1)) // type: icon
	binary.Write(&header, binary.LittleEndian, uint16(len(images)))

	offset := uint32(headerSize + entrySize*len(images))
	for i, img := range images {
		b := img.Bounds()
		header.WriteByte(dimByte(b.Dx()))
		header.WriteByte(dimByte(b.Dy()))
		header.WriteByte(0) // palette
		header.WriteByte(0) // reserved
		binary.Write(&header, binary.LittleEndian, uint16(1))  // planes
		binary.Write(&header, binary.LittleEndian, uint16(32)) // bits per pixel
		binary.Write(&header, binary.LittleEndian, uint32(len(payloads[i])))
		binary.Write(&header, binary.LittleEndian, offset)
		offset += uint32(len(payloads[i]))
	}

	if _, err := w.Write(header.Bytes()); err != nil {
		return fmt.Errorf("writing icon header: %w", err)
	}
	for _, p := range payloads {
		if _, err := w.Write(p); err != nil {
			return fmt.Errorf("writing icon image: %w", err)
		}
	}
	return nil
}

// 0 stands for 256 in an ICO directory entry.
func dimByte(n int) byte {
	if n >= 256 {
		return 0
	}
	return byte(n)
}

// Entry is one parsed ICO directory entry.
type Entry struct {
	Width, Height int
	BitCount      int
	Size          uint32
	Offset        uint32
}

// ReadEntries parses the directory of an ICO container.
func ReadEntries(r io.Reader) ([]Entry, error) {
	var hdr struct {
		Reserved, Type, Count uint16
	}
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("reading icon header: %w", err)
	}
	if hdr.Reserved != 0 || hdr.Type != 1 {
		return nil, errors.New("not an icon file")
	}

	entries := make([]Entry, 0, hdr.Count)
	for i := 0; i < int(hdr.Count); i++ {
		var raw struct {
			Width, Height, Colors, Reserved uint8
			Planes, BitCount                uint16
			Size, Offset                    uint32
		}
		if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
			return nil, fmt.Errorf("reading icon entry %d: %w", i, err)
		}
		e := Entry{Width: int(raw.Width), Height: int(raw.Height), BitCount: int(raw.BitCount), Size: raw.Size, Offset: raw.Offset}
		if e.Width == 0 {
			e.Width = 256
		}
		if e.Height == 0 {
			e.Height = 256
		}
		entries = append(entries, e)
	}
	return entries, nil
}
