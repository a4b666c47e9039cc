// Package testutil 测试用图片构造工具
package testutil

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
)

// TIFF 数据类型
const (
	TypeByte      uint16 = 1
	TypeASCII     uint16 = 2
	TypeShort     uint16 = 3
	TypeLong      uint16 = 4
	TypeRational  uint16 = 5
	TypeUndefined uint16 = 7
	TypeSRational uint16 = 10
)

// 常用标签
const (
	TagMake           uint16 = 0x010F
	TagModel          uint16 = 0x0110
	TagOrientation    uint16 = 0x0112
	TagXResolution    uint16 = 0x011A
	TagExifIFDPointer uint16 = 0x8769
	TagExposureTime   uint16 = 0x829A
	TagUserComment    uint16 = 0x9286
	TagExposureBias   uint16 = 0x9204
)

// Entry 一个 IFD 条目
type Entry struct {
	Tag   uint16
	Type  uint16
	Count uint32
	Data  []byte
}

var le = binary.LittleEndian

// ASCII 构造以 NUL 结尾的字符串条目
func ASCII(tag uint16, s string) Entry {
	b := append([]byte(s), 0)
	return Entry{Tag: tag, Type: TypeASCII, Count: uint32(len(b)), Data: b}
}

// Short 构造 SHORT 条目
func Short(tag uint16, values ...uint16) Entry {
	b := make([]byte, 2*len(values))
	for i, v := range values {
		le.PutUint16(b[2*i:], v)
	}
	return Entry{Tag: tag, Type: TypeShort, Count: uint32(len(values)), Data: b}
}

// Rational 构造 RATIONAL 条目，参数依次为分子、分母
func Rational(tag uint16, pairs ...uint32) Entry {
	b := make([]byte, 4*len(pairs))
	for i, v := range pairs {
		le.PutUint32(b[4*i:], v)
	}
	return Entry{Tag: tag, Type: TypeRational, Count: uint32(len(pairs) / 2), Data: b}
}

// SRational 构造 SRATIONAL 条目
func SRational(tag uint16, pairs ...int32) Entry {
	b := make([]byte, 4*len(pairs))
	for i, v := range pairs {
		le.PutUint32(b[4*i:], uint32(v))
	}
	return Entry{Tag: tag, Type: TypeSRational, Count: uint32(len(pairs) / 2), Data: b}
}

// Undefined 构造 UNDEFINED 条目
func Undefined(tag uint16, data []byte) Entry {
	return Entry{Tag: tag, Type: TypeUndefined, Count: uint32(len(data)), Data: data}
}

func encodeIFD(offset uint32, entries []Entry) []byte {
	n := len(entries)
	dataOff := offset + 2 + uint32(12*n) + 4

	var head, data bytes.Buffer
	_ = binary.Write(&head, le, uint16(n))
	for _, e := range entries {
		_ = binary.Write(&head, le, e.Tag)
		_ = binary.Write(&head, le, e.Type)
		_ = binary.Write(&head, le, e.Count)
		if len(e.Data) <= 4 {
			v := make([]byte, 4)
			copy(v, e.Data)
			head.Write(v)
			continue
		}
		_ = binary.Write(&head, le, dataOff+uint32(data.Len()))
		data.Write(e.Data)
		if data.Len()%2 == 1 {
			data.WriteByte(0)
		}
	}
	_ = binary.Write(&head, le, uint32(0))

	return append(head.Bytes(), data.Bytes()...)
}

// TIFF 构造小端 TIFF 块，exifEntries 非空时写入 Exif 子 IFD
func TIFF(ifd0 []Entry, exifEntries []Entry) []byte {
	const headerSize = 8

	entries := append([]Entry(nil), ifd0...)
	if len(exifEntries) > 0 {
		entries = append(entries, Entry{Tag: TagExifIFDPointer, Type: TypeLong, Count: 1, Data: make([]byte, 4)})
	}

	first := encodeIFD(headerSize, entries)
	if len(exifEntries) > 0 {
		// 子 IFD 紧跟在 IFD0 之后，长度不受指针值影响
		ptr := make([]byte, 4)
		le.PutUint32(ptr, uint32(headerSize+len(first)))
		entries[len(entries)-1].Data = ptr
		first = encodeIFD(headerSize, entries)
	}

	var buf bytes.Buffer
	buf.WriteString("II")
	_ = binary.Write(&buf, le, uint16(42))
	_ = binary.Write(&buf, le, uint32(headerSize))
	buf.Write(first)
	if len(exifEntries) > 0 {
		buf.Write(encodeIFD(uint32(buf.Len()), exifEntries))
	}
	return buf.Bytes()
}

// InsertExif 在 JPEG 的 SOI 之后插入 APP1 EXIF 段
func InsertExif(jpg []byte, tiffData []byte) []byte {
	payload := append([]byte("Exif\x00\x00"), tiffData...)

	var buf bytes.Buffer
	buf.Write(jpg[:2])
	buf.Write([]byte{0xFF, 0xE1})
	_ = binary.Write(&buf, binary.BigEndian, uint16(len(payload)+2))
	buf.Write(payload)
	buf.Write(jpg[2:])
	return buf.Bytes()
}

// Gradient 生成 w*h 的渐变测试图
func Gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x * 255 / max(w-1, 1)),
				G: uint8(y * 255 / max(h-1, 1)),
				B: uint8((x + y) % 256),
				A: 255,
			})
		}
	}
	return img
}

// JPEG 编码测试图
func JPEG(w, h int) []byte {
	var buf bytes.Buffer
	_ = jpeg.Encode(&buf, Gradient(w, h), &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

// PNG 编码测试图
func PNG(w, h int) []byte {
	var buf bytes.Buffer
	_ = png.Encode(&buf, Gradient(w, h))
	return buf.Bytes()
}

// CameraJPEG 生成带 Make/Model EXIF 的 JPEG
func CameraJPEG(cameraMake, cameraModel string) []byte {
	return InsertExif(JPEG(16, 12), TIFF([]Entry{
		ASCII(TagMake, cameraMake),
		ASCII(TagModel, cameraModel),
	}, nil))
}
