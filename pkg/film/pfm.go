package film

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// savePFM writes the HDR state as a Portable FloatMap: a color "PF" header,
// then rows of little-endian float32 RGB triples ordered bottom-to-top as the
// format requires.
func (img *AccumulatedImage) savePFM(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	// A negative scale declares little-endian sample encoding.
	if _, err := fmt.Fprintf(w, "PF\n%d %d\n-1.0\n", img.width, img.height); err != nil {
		return fmt.Errorf("writing %s header: %w", path, err)
	}

	var sample [4]byte
	for y := img.height - 1; y >= 0; y-- {
		for x := 0; x < img.width; x++ {
			p := img.pixels[y*img.width+x]
			for _, v := range [3]float64{p.X, p.Y, p.Z} {
				binary.LittleEndian.PutUint32(sample[:], math.Float32bits(float32(v)))
				if _, err := w.Write(sample[:]); err != nil {
					return fmt.Errorf("writing %s: %w", path, err)
				}
			}
		}
	}
	return w.Flush()
}
