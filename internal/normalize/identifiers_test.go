// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"testing"

	"github.com/pdiddy/refcheck/pkg/types"
)

func TestExtractIdentifiers(t *testing.T) {
	tests := []struct {
		name string
		text string
		want map[types.IdentifierKind]string
	}{
		{
			name: "doi with trailing period",
			text: "Vaswani et al. Attention Is All You Need. doi:10.48550/arXiv.1706.03762.",
			want: map[types.IdentifierKind]string{
				types.IdentDOI: "10.48550/arXiv.1706.03762",
			},
		},
		{
			name: "arxiv colon form",
			text: "Kingma, Welling. Auto-Encoding Variational Bayes. arXiv:1312.6114 (2014)",
			want: map[types.IdentifierKind]string{types.IdentArxiv: "1312.6114"},
		},
		{
			name: "arxiv spaced form",
			text: "Preprint at arXiv 2005.14165, 2020",
			want: map[types.IdentifierKind]string{types.IdentArxiv: "2005.14165"},
		},
		{
			name: "rfc with space",
			text: "Postel, J. Transmission Control Protocol. RFC 793, 1981.",
			want: map[types.IdentifierKind]string{types.IdentRFC: "793"},
		},
		{
			name: "wg21 paper with revision",
			text: "Sutter, H. Lifetime safety. P1234R2, 2019.",
			want: map[types.IdentifierKind]string{types.IdentWG21: "P1234R2"},
		},
		{
			name: "wg21 n paper lowercase",
			text: "Working Draft, n4861.",
			want: map[types.IdentifierKind]string{types.IdentWG21: "N4861"},
		},
		{
			name: "isbn hyphenated",
			text: "Stroustrup. The C++ Programming Language. ISBN 978-0-321-56384-2.",
			want: map[types.IdentifierKind]string{types.IdentISBN: "9780321563842"},
		},
		{
			name: "isbn wrong length dropped",
			text: "ISBN 978-0-321",
			want: nil,
		},
		{
			name: "nothing",
			text: "Lamport, L. Paxos Made Simple. 2001.",
			want: nil,
		},
		{
			name: "multiple kinds",
			text: "RFC 9110 obsoletes RFC 7231. doi:10.17487/RFC9110",
			want: map[types.IdentifierKind]string{
				types.IdentRFC: "9110",
				types.IdentDOI: "10.17487/RFC9110",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractIdentifiers(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("ExtractIdentifiers() = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("ids[%s] = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestExtractIdentifiersFirstOccurrenceWins(t *testing.T) {
	got := ExtractIdentifiers("RFC 793 and later RFC 1122")
	if got[types.IdentRFC] != "793" {
		t.Errorf("rfc = %q, want the first occurrence", got[types.IdentRFC])
	}
}
