package autocal

import (
	"os"

	"go.viam.com/rdk/pointcloud"
	"go.viam.com/utils"
)

// VertexPointCloud returns the reconstructed edge vertices as a point cloud,
// in the depth camera frame, for visual inspection of the edge extraction.
func (o *Optimizer) VertexPointCloud() (pointcloud.PointCloud, error) {
	pc := pointcloud.NewBasicEmpty()
	for _, v := range o.depth.vertices {
		if err := pc.Set(v, nil); err != nil {
			return nil, err
		}
	}
	return pc, nil
}

// WriteVertexPCD writes the edge vertices to a binary PCD file.
func (o *Optimizer) WriteVertexPCD(fn string) error {
	pc, err := o.VertexPointCloud()
	if err != nil {
		return err
	}
	f, err := os.OpenFile(fn, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := pointcloud.ToPCD(pc, f, pointcloud.PCDBinary); err != nil {
		utils.UncheckedErrorFunc(f.Close)
		return err
	}
	return f.Close()
}
