//
// Copyright (c) 2018 The heketi Authors
//
// This file is licensed to you under your choice of the GNU Lesser
// General Public License, version 3 or any later version (LGPLv3 or
// later), or the GNU General Public License, version 2 (GPLv2), in all
// cases as published by the Free Software Foundation.
//

package recovery

// Arithmetic in GF(2^8) with the polynomial 0x11d and generator 2,
// as used by the RAID6 Q syndrome.

const gfPoly = 0x11d

var (
	// gfExp holds two periods so that sums of logs need no reduction
	gfExp [510]byte
	gfLog [256]int
)

func init() {
	x := 1
	for i := 0; i < 255; i++ {
		gfExp[i] = byte(x)
		gfExp[i+255] = byte(x)
		gfLog[x] = i
		x <<= 1
		if x&0x100 != 0 {
			x ^= gfPoly
		}
	}
}

func gfMul(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return gfExp[gfLog[a]+gfLog[b]]
}

// gfPow returns g^i.
func gfPow(i int) byte {
	return gfExp[i%255]
}

func gfInv(a byte) byte {
	if a == 0 {
		panic("gf: inverse of zero")
	}
	return gfExp[255-gfLog[a]]
}

func xorInto(dst, src []byte) {
	for i := range dst {
		dst[i] ^= src[i]
	}
}

// mulXorInto adds c*src to dst.
func mulXorInto(dst, src []byte, c byte) {
	if c == 0 {
		return
	}
	lc := gfLog[c]
	for i, s := range src {
		if s != 0 {
			dst[i] ^= gfExp[gfLog[s]+lc]
		}
	}
}
