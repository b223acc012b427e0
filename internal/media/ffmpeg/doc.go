// Package ffmpeg rescales video to square pixels before upload.
//
// Some digitised video carries a non-square sample aspect ratio that the
// archive's player renders distorted. The Squarifier probes each file and
// transcodes only video whose pixels are not already square, writing
// <stem>_square-pixel<ext> into a scratch directory. Audio and already-square
// files pass through untouched.
package ffmpeg
