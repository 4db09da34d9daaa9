package packaging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sassoftware/go-rpmutils"
	"github.com/tizen/itest/internal/models"
	"github.com/tizen/itest/internal/utils"
)

// ReadPackage reads the header of an RPM file
func ReadPackage(path string) (*models.Package, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, models.NewError(models.ErrFileOp, path, err)
	}
	defer f.Close()

	pkg, err := ReadPackageFrom(f)
	if err != nil {
		return nil, models.NewError(models.ErrPackaging, path, err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, models.NewError(models.ErrFileOp, path, err)
	}
	info, err := f.Stat()
	if err != nil {
		return nil, models.NewError(models.ErrFileOp, path, err)
	}
	sum, err := utils.ReaderSHA256(f)
	if err != nil {
		return nil, models.NewError(models.ErrFileOp, path, err)
	}

	pkg.Filename = path
	pkg.Size = info.Size()
	pkg.SHA256Sum = sum
	return pkg, nil
}

// ReadPackageFrom reads an RPM header from r
func ReadPackageFrom(r io.Reader) (*models.Package, error) {
	rpm, err := rpmutils.ReadRpm(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read RPM: %w", err)
	}

	pkg := &models.Package{
		Name:         getStringTag(rpm, rpmutils.NAME),
		Version:      getStringTag(rpm, rpmutils.VERSION),
		Release:      getStringTag(rpm, rpmutils.RELEASE),
		Epoch:        getStringTag(rpm, rpmutils.EPOCH),
		Architecture: getStringTag(rpm, rpmutils.ARCH),
		Summary:      getStringTag(rpm, rpmutils.SUMMARY),
		License:      getStringTag(rpm, rpmutils.LICENSE),
		URL:          getStringTag(rpm, rpmutils.URL),
		Requires:     getStringSliceTag(rpm, rpmutils.REQUIRENAME),
	}

	files, err := rpm.Header.GetFiles()
	if err == nil {
		for _, fi := range files {
			pkg.Files = append(pkg.Files, fi.Name())
		}
	}

	return pkg, nil
}

// getStringTag safely gets a string tag from RPM
func getStringTag(rpm *rpmutils.Rpm, tag int) string {
	val, err := rpm.Header.Get(tag)
	if err != nil {
		return ""
	}

	// Handle different types that might be returned
	switch v := val.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	case []int:
		if len(v) > 0 {
			return fmt.Sprintf("%d", v[0])
		}
	case []int32:
		if len(v) > 0 {
			return fmt.Sprintf("%d", v[0])
		}
	default:
		return fmt.Sprintf("%v", v)
	}

	return ""
}

// getStringSliceTag safely gets a string slice tag from RPM
func getStringSliceTag(rpm *rpmutils.Rpm, tag int) []string {
	val, err := rpm.Header.Get(tag)
	if err != nil {
		return nil
	}
	if slice, ok := val.([]string); ok {
		// Filter out empty strings
		var result []string
		for _, s := range slice {
			s = strings.TrimSpace(s)
			if s != "" {
				result = append(result, s)
			}
		}
		return result
	}
	return nil
}
