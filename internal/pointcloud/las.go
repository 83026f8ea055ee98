package pointcloud

import (
	"fmt"
	"path/filepath"
	"strings"

	"heightval/internal/model"

	"github.com/jblindsay/lidario"
	"go.uber.org/zap"
)

// ErrCompressed is returned for LAZ input, which has to be decompressed to
// LAS first (laszip, pdal translate)
var ErrCompressed = model.ValidationError("compressed LAZ point clouds are not supported, decompress to LAS first")

// ReadLAS loads every point of a LAS file, point formats 0 to 3. None of them
// carries a NIR channel so the returned cloud never has one.
func ReadLAS(path string) (Cloud, error) {
	if strings.EqualFold(filepath.Ext(path), ".laz") {
		return Cloud{}, fmt.Errorf("%w: %s", ErrCompressed, path)
	}

	las, err := lidario.NewLasFile(path, "r")
	if err != nil {
		return Cloud{}, fmt.Errorf("failed to open point cloud %s: %w", path, err)
	}
	defer las.Close()

	cloud := Cloud{Points: make([]Point, 0, las.Header.NumberPoints)}
	for i := 0; i < las.Header.NumberPoints; i++ {
		lp, err := las.LasPoint(i)
		if err != nil {
			return Cloud{}, fmt.Errorf("failed to read point %d of %s: %w", i, path, err)
		}
		pd := lp.PointData()
		cloud.Points = append(cloud.Points, Point{
			X:            pd.X,
			Y:            pd.Y,
			Z:            pd.Z,
			Class:        pd.ClassBitField.Value & 0x1f,
			ReturnNumber: pd.BitField.Value & 0x07,
			NumReturns:   (pd.BitField.Value >> 3) & 0x07,
		})
	}

	zap.L().Info("Loaded point cloud",
		zap.String("path", path),
		zap.Int("points", len(cloud.Points)),
		zap.Uint8("format", las.Header.PointFormatID),
	)
	return cloud, nil
}
