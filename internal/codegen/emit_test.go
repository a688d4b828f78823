package codegen

import (
	"strings"
	"testing"
)

func TestClassSkeletonEmitted(t *testing.T) {
	out := goldenCompile(t, `
function main()
end
`)
	if !strings.Contains(out, ".class public Golden") {
		t.Fatalf("expected class header, got:\n%s", out)
	}
	if !strings.Contains(out, ".method public static main([Ljava/lang/String;)V") {
		t.Fatalf("expected main method descriptor, got:\n%s", out)
	}
	if !strings.Contains(out, ".super java/lang/Object") {
		t.Fatalf("expected superclass directive, got:\n%s", out)
	}
}

func TestStackLimitIsResolvedNotPlaceholder(t *testing.T) {
	out := goldenCompile(t, `
function main()
	x :: Float64 = 1
	y :: Float64 = 2
	z :: Float64 = x + y
	println(z)
end
`)
	if strings.Contains(out, ".limit stack -") {
		t.Fatalf("expected placeholder to be rewritten, got:\n%s", out)
	}
	if !strings.Contains(out, ".limit stack 4") {
		t.Fatalf("expected a stack limit of 4 (two Float64s on the stack), got:\n%s", out)
	}
}

func TestFunctionDescriptorIncludesParamsAndReturn(t *testing.T) {
	out := goldenCompile(t, `
function add(a::Integer, b::Float64)::Float64
	return b
end

function main()
end
`)
	if !strings.Contains(out, ".method public static add(ID)D") {
		t.Fatalf("expected descriptor (ID)D, got:\n%s", out)
	}
}

func TestBoolPrintMaterializesStringLiterals(t *testing.T) {
	out := goldenCompile(t, `
function main()
	b :: Bool = true
	println(b)
end
`)
	if !strings.Contains(out, `ldc "true"`) || !strings.Contains(out, `ldc "false"`) {
		t.Fatalf("expected both true/false materialization branches, got:\n%s", out)
	}
}

func TestVoidFunctionReturnsPlainReturn(t *testing.T) {
	out := goldenCompile(t, `
function log()
	println("hi")
end

function main()
	log()
end
`)
	idx := strings.Index(out, ".method public static log()V")
	if idx < 0 {
		t.Fatalf("expected Void descriptor, got:\n%s", out)
	}
	if !strings.Contains(out[idx:], "\treturn\n") {
		t.Fatalf("expected a bare return in a Void function, got:\n%s", out[idx:])
	}
}
