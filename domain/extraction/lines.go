package extraction

import "bytes"

// ScanStatusLines is a bufio.SplitFunc for decoder status output. ffmpeg redraws its
// stats line with a bare carriage return, so both '\r' and '\n' end a line.
// Empty lines are returned as empty tokens.
func ScanStatusLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		advance = i + 1
		// Treat "\r\n" as a single terminator
		if data[i] == '\r' && i+1 < len(data) && data[i+1] == '\n' {
			advance++
		} else if data[i] == '\r' && i+1 == len(data) && !atEOF {
			// Need one more byte to tell "\r" from "\r\n"
			return 0, nil, nil
		}
		return advance, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
