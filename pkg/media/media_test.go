package media_test

import (
	"encoding/base64"
	"errors"
	"io"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/gemchat/pkg/media"
)

// pngHeader is enough of a PNG signature for content sniffing.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

type brokenResource struct{}

func (brokenResource) Name() string      { return "broken.png" }
func (brokenResource) MediaType() string { return "image/png" }
func (brokenResource) Size() int64       { return 10 }
func (brokenResource) Open() (io.ReadCloser, error) {
	return nil, errors.New("device unplugged")
}

var _ = Describe("Resource", func() {
	var tmpDir string

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
	})

	Describe("OpenFile", func() {
		It("uses the file extension for the media type", func() {
			path := filepath.Join(tmpDir, "cat.jpg")
			Expect(os.WriteFile(path, []byte("not really a jpeg"), 0o644)).To(Succeed())

			r, err := media.OpenFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(r.MediaType()).To(Equal("image/jpeg"))
			Expect(r.Name()).To(Equal("cat.jpg"))
			Expect(r.Size()).To(Equal(int64(len("not really a jpeg"))))
		})

		It("sniffs the content when the extension is unknown", func() {
			path := filepath.Join(tmpDir, "screenshot")
			Expect(os.WriteFile(path, pngHeader, 0o644)).To(Succeed())

			r, err := media.OpenFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(r.MediaType()).To(Equal("image/png"))
		})

		It("fails for a missing file", func() {
			_, err := media.OpenFile(filepath.Join(tmpDir, "missing.png"))
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, os.ErrNotExist)).To(BeTrue())
		})

		It("fails for a directory", func() {
			_, err := media.OpenFile(tmpDir)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("NewBytesResource", func() {
		It("keeps a declared media type", func() {
			r := media.NewBytesResource("a.webp", "image/webp", []byte("data"))
			Expect(r.MediaType()).To(Equal("image/webp"))
			Expect(r.Size()).To(Equal(int64(4)))
		})

		It("sniffs an empty media type", func() {
			r := media.NewBytesResource("upload", "", pngHeader)
			Expect(r.MediaType()).To(Equal("image/png"))
		})
	})
})

var _ = Describe("Encode", func() {
	It("round-trips the original bytes", func() {
		data := make([]byte, 4096)
		for i := range data {
			data[i] = byte(i * 7)
		}
		r := media.NewBytesResource("blob.bin", "application/octet-stream", data)

		encoded, err := media.Encode(r)
		Expect(err).NotTo(HaveOccurred())

		decoded, err := base64.StdEncoding.DecodeString(encoded)
		Expect(err).NotTo(HaveOccurred())
		Expect(decoded).To(Equal(data))
	})

	It("round-trips a file on disk", func() {
		path := filepath.Join(GinkgoT().TempDir(), "photo.png")
		Expect(os.WriteFile(path, pngHeader, 0o644)).To(Succeed())
		r, err := media.OpenFile(path)
		Expect(err).NotTo(HaveOccurred())

		encoded, err := media.Encode(r)
		Expect(err).NotTo(HaveOccurred())
		Expect(base64.StdEncoding.DecodeString(encoded)).To(Equal(pngHeader))
	})

	It("encodes an empty resource as an empty string", func() {
		encoded, err := media.Encode(media.NewBytesResource("empty", "image/png", nil))
		Expect(err).NotTo(HaveOccurred())
		Expect(encoded).To(BeEmpty())
	})

	It("propagates read failures as an EncodeError", func() {
		_, err := media.Encode(brokenResource{})
		Expect(err).To(HaveOccurred())

		var encErr *media.EncodeError
		Expect(errors.As(err, &encErr)).To(BeTrue())
		Expect(encErr.Name).To(Equal("broken.png"))
		Expect(err.Error()).To(ContainSubstring("device unplugged"))
	})
})

var _ = Describe("CheckSize", func() {
	It("accepts a resource exactly at the limit", func() {
		r := media.NewBytesResource("edge.jpg", "image/jpeg", make([]byte, media.MaxImageBytes))
		Expect(media.CheckSize(r, media.MaxImageBytes)).To(Succeed())
	})

	It("rejects a resource over the limit", func() {
		r := media.NewBytesResource("big.jpg", "image/jpeg", make([]byte, media.MaxImageBytes+1))

		err := media.CheckSize(r, media.MaxImageBytes)
		Expect(err).To(MatchError(media.ErrOversizedImage))

		var oversized *media.OversizedError
		Expect(errors.As(err, &oversized)).To(BeTrue())
		Expect(oversized.Size).To(Equal(media.MaxImageBytes + 1))
		Expect(oversized.Limit).To(Equal(media.MaxImageBytes))
	})
})
