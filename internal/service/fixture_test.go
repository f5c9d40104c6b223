package service_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"hoa-advisor-go/internal/repository"
	"hoa-advisor-go/pkg/database"
	"hoa-advisor-go/pkg/guideline"
	"hoa-advisor-go/pkg/llm"
	"hoa-advisor-go/pkg/storage"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const fencingText = "Fencing\n1. Height\n1.1. Fences in side and rear yards may not exceed 6 feet.\n"

const compliantJSON = `{"compliance_status":"compliant","summary":"Everything visible complies.","issues":[{"element":"Fence","status":"compliant","detail":"Wood, about 5 ft."}],"recommendations":[],"not_assessed":["Roof"],"message":"Your property looks great!"}`

const violationJSON = `{"compliance_status":"violation","summary":"The fence appears too tall.","issues":[{"element":"Rear fence","status":"violation","detail":"Looks about 8 ft."}],"recommendations":["Lower the fence to 6 ft."],"not_assessed":[],"message":"There is one issue to fix."}`

type mockLLM struct {
	mock.Mock
}

func (m *mockLLM) Complete(ctx context.Context, messages []llm.Message, gen *llm.GenerationParams) (string, error) {
	args := m.Called(ctx, messages, gen)
	return args.String(0), args.Error(1)
}

type fixture struct {
	db          *gorm.DB
	guidelines  *guideline.Store
	guideDir    string
	blobs       *storage.LocalStore
	blobRoot    string
	submissions repository.SubmissionRepository
	reports     repository.ReportRepository
	cacheRepo   repository.CacheRepository
	llm         *mockLLM
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	db, err := database.Open("sqlite", filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	guideDir := filepath.Join(dir, "guidelines")
	require.NoError(t, os.MkdirAll(guideDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(guideDir, "fencing.txt"), []byte(fencingText), 0o644))

	blobRoot := filepath.Join(dir, "uploads")
	blobs, err := storage.NewLocalStore(blobRoot)
	require.NoError(t, err)

	return &fixture{
		db:          db,
		guidelines:  guideline.NewStore(guideDir, ""),
		guideDir:    guideDir,
		blobs:       blobs,
		blobRoot:    blobRoot,
		submissions: repository.NewSubmissionRepository(db),
		reports:     repository.NewReportRepository(db),
		cacheRepo:   repository.NewCacheRepository(db),
		llm:         &mockLLM{},
	}
}

// storedFiles 返回上传目录下的全部文件。
func (f *fixture) storedFiles(t *testing.T) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(f.blobRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	require.NoError(t, err)
	return files
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for x := 0; x < 16; x++ {
		for y := 0; y < 16; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 180, B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// hugePNG 是一个只有 IHDR 的 PNG，声明 16000x16000 像素，文件本身只有几十字节。
func hugePNG() []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], 16000)
	binary.BigEndian.PutUint32(ihdr[4:8], 16000)
	ihdr[8] = 8

	var buf bytes.Buffer
	buf.Write([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'})
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}
