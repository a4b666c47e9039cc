// Package editor 实现照片的非破坏性编辑滤镜
package editor

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// BlurSigma 高斯模糊半径
const BlurSigma = 8.0

// sepiaPalette 按亮度索引的棕黄色调色板
var sepiaPalette = func() color.Palette {
	p := make(color.Palette, 256)
	for i := range p {
		p[i] = color.RGBA{
			R: uint8(i * 240 / 255),
			G: uint8(i * 200 / 255),
			B: uint8(i * 145 / 255),
			A: 255,
		}
	}
	return p
}()

// Apply 对图片执行编辑操作，返回新图片，输入不会被修改
// 所有操作都保持宽高不变，OpNone 原样返回输入
func Apply(img image.Image, op Operation) image.Image {
	switch op {
	case OpFlip:
		return imaging.FlipV(img)
	case OpMirror:
		return imaging.FlipH(img)
	case OpBlur:
		return imaging.Blur(img, BlurSigma)
	case OpInvert:
		return imaging.Invert(expand(img))
	case OpAutoContrast:
		return autoContrast(expand(img))
	case OpGrayscale:
		return grayscale(img)
	case OpSepia:
		return sepia(img)
	default:
		return img
	}
}

// expand 将调色板等不支持逐通道运算的图片转换为 NRGBA
func expand(img image.Image) *image.NRGBA {
	if nrgba, ok := img.(*image.NRGBA); ok {
		return nrgba
	}
	return imaging.Clone(img)
}

// autoContrast 对 R、G、B 分别拉伸到 0..255，单一取值的通道保持不变
func autoContrast(img *image.NRGBA) *image.NRGBA {
	lo := [3]uint8{255, 255, 255}
	hi := [3]uint8{0, 0, 0}

	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[(y-b.Min.Y)*img.Stride:]
		for x := 0; x < b.Dx(); x++ {
			px := row[x*4 : x*4+3]
			for c := 0; c < 3; c++ {
				lo[c] = min(lo[c], px[c])
				hi[c] = max(hi[c], px[c])
			}
		}
	}

	var lut [3][256]uint8
	for c := 0; c < 3; c++ {
		for v := 0; v < 256; v++ {
			switch {
			case hi[c] <= lo[c]:
				lut[c][v] = uint8(v)
			case v <= int(lo[c]):
				lut[c][v] = 0
			case v >= int(hi[c]):
				lut[c][v] = 255
			default:
				lut[c][v] = uint8((v - int(lo[c])) * 255 / (int(hi[c]) - int(lo[c])))
			}
		}
	}

	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: lut[0][c.R], G: lut[1][c.G], B: lut[2][c.B], A: c.A}
	})
}

// grayscale 转为单通道亮度图，亮度按未预乘的颜色计算，忽略 alpha
func grayscale(img image.Image) *image.Gray {
	src := imaging.Clone(img)
	dst := image.NewGray(src.Rect)
	for i := range dst.Pix {
		p := src.Pix[i*4 : i*4+3]
		r, g, b := uint32(p[0])*0x101, uint32(p[1])*0x101, uint32(p[2])*0x101
		dst.Pix[i] = uint8((19595*r + 38470*g + 7471*b + 1<<15) >> 24)
	}
	return dst
}

// sepia 先按亮度量化到 256 色索引图，再套用棕褐色调色板
func sepia(img image.Image) *image.Paletted {
	gray := grayscale(img)

	dst := image.NewPaletted(gray.Bounds(), sepiaPalette)
	copy(dst.Pix, gray.Pix)
	return dst
}
