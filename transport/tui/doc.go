// Package tui replays a treasure hunt run in the terminal.
//
// Record plays a world configuration and keeps the grid after every step;
// Watch shows the frames with Bubble Tea, coloured by the render palette.
// Playback can be paused, stepped and sped up from the keyboard.
package tui
