// Package autocal is an online auto-calibration engine for depth-plus-color
// cameras. Given one depth frame, one IR frame, and two consecutive color
// frames, it refines the depth-to-color projection (intrinsics, extrinsics,
// lens distortion, expressed as a 3x4 projection matrix) and the
// device-specific depth distortion parameters until depth edges and color
// edges agree in 3D.
//
// The pipeline: Sobel gradients on all frames, sub-pixel depth/IR edge
// localization, 3D vertex reconstruction, a smoothed color edge field used
// as a differentiable cost landscape, a backtracking line search over the 12
// projection parameters, and an outer loop that alternates projection
// optimization with device-model conversion.
package autocal
